package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/agri4/agri-server/internal/metrics"
	"github.com/agri4/agri-server/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type pestResponse struct {
	Label         string    `json:"label"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities,omitempty"`
	Classes       []string  `json:"classes,omitempty"`
}

type classResponse struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

func PredictPest(c *gin.Context) {
	prediction, classifier, ok := classify(c, model.PestModel)
	if !ok {
		return
	}

	resp := pestResponse{Label: prediction.Label, Confidence: prediction.Confidence}
	if withProbabilities, _ := strconv.ParseBool(c.Query("probabilities")); withProbabilities {
		handle, err := classifier.Initialize()
		if err == nil {
			resp.Probabilities = prediction.Distribution
			resp.Classes = handle.Labels()
		}
	}

	c.JSON(http.StatusOK, resp)
}

func PredictCrop(c *gin.Context) {
	prediction, _, ok := classify(c, model.CropModel)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, classResponse{Class: prediction.Label, Confidence: round3(prediction.Confidence)})
}

func PredictMultispectral(c *gin.Context) {
	prediction, _, ok := classify(c, model.MultispectralModel)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, classResponse{Class: prediction.Label, Confidence: round3(prediction.Confidence)})
}

func MultispectralStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Multispectral model active!"})
}

// classify runs the named classifier on the uploaded file. On failure it has
// already written the error response.
func classify(c *gin.Context, name string) (*model.Prediction, *model.Classifier, bool) {
	app := getApp(c)
	started := time.Now()

	data, _, err := readFormFile(c)
	if err != nil {
		metrics.ObservePrediction(name, "bad_request", started)
		errorJSON(c, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	if app.Models == nil {
		metrics.ObservePrediction(name, "unavailable", started)
		errorJSON(c, http.StatusServiceUnavailable, "models are not configured")
		return nil, nil, false
	}

	classifier, err := app.Models.Get(name)
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return nil, nil, false
	}

	prediction, err := classifier.Predict(data)
	metrics.ModelState.WithLabelValues(name).Set(float64(classifier.State()))
	if err != nil {
		status, outcome := predictionStatus(err)
		metrics.ObservePrediction(name, outcome, started)
		if status >= http.StatusInternalServerError {
			app.Logger.Error("Prediction failed", zap.String("model", name), zap.Error(err))
		}
		errorJSON(c, status, err.Error())
		return nil, nil, false
	}

	metrics.ObservePrediction(name, "ok", started)
	return prediction, classifier, true
}

func predictionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrImageDecode):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrArtifactNotFound),
		errors.Is(err, model.ErrLabelFileMissing),
		errors.Is(err, model.ErrEmptyLabelSet),
		errors.Is(err, model.ErrModelLoadFailed),
		errors.Is(err, model.ErrClassifierClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
