package api

import (
	"net/http"

	"github.com/agri4/agri-server/internal/metrics"

	"github.com/gin-gonic/gin"
)

type ModelRequest struct {
	Models []string `json:"models"`
}

func GetModelStatus(c *gin.Context) {
	app := getApp(c)
	if app.Models == nil {
		errorJSON(c, http.StatusServiceUnavailable, "models are not configured")
		return
	}

	statuses := app.Models.Statuses()
	for _, classifier := range app.Models.Names() {
		if cl, err := app.Models.Get(classifier); err == nil {
			metrics.ModelState.WithLabelValues(classifier).Set(float64(cl.State()))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"models": statuses,
	})
}

// LoadModels initializes the requested classifiers, all of them when none
// are named, and reports the resulting statuses.
func LoadModels(c *gin.Context) {
	app := getApp(c)
	if app.Models == nil {
		errorJSON(c, http.StatusServiceUnavailable, "models are not configured")
		return
	}

	var req ModelRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "failed to parse request body")
		return
	}

	if err := app.Models.Warmup(req.Models...); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  err.Error(),
			"models": app.Models.Statuses(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"models": app.Models.Statuses(),
	})
}
