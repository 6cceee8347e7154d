package api

import (
	"errors"
	"net/http"

	"github.com/agri4/agri-server/internal/db/models"
	"github.com/agri4/agri-server/internal/db/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MarketItemRequest uses pointers so a missing field can be told apart from a
// zero value.
type MarketItemRequest struct {
	Name        *string  `json:"name"`
	Company     string   `json:"company"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
	Description string   `json:"description"`
}

func (r *MarketItemRequest) missingField() string {
	switch {
	case r.Name == nil:
		return "name"
	case r.Price == nil:
		return "price"
	case r.Category == nil:
		return "category"
	case r.Image == nil:
		return "image"
	}
	return ""
}

func ListMarketItems(c *gin.Context) {
	app := getApp(c)
	if app.MarketRepository == nil {
		dbUnavailable(c)
		return
	}

	items, err := app.MarketRepository.List(c.Request.Context(), repository.MarketFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, items)
}

func CreateMarketItem(c *gin.Context) {
	app := getApp(c)
	if app.MarketRepository == nil {
		dbUnavailable(c)
		return
	}

	if c.Request.ContentLength == 0 {
		errorJSON(c, http.StatusBadRequest, "No data provided")
		return
	}

	var req MarketItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "No data provided")
		return
	}
	if field := req.missingField(); field != "" {
		errorJSON(c, http.StatusBadRequest, "Missing field: "+field)
		return
	}

	item := models.NewMarketItem(*req.Name, req.Company, *req.Price, *req.Category, *req.Image, req.Description)
	item, err := app.MarketRepository.Create(c.Request.Context(), item)
	if err != nil {
		app.Logger.Error("failed to create market item", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, item)
}

func DeleteMarketItem(c *gin.Context) {
	app := getApp(c)
	if app.MarketRepository == nil {
		dbUnavailable(c)
		return
	}

	id, ok := parseID(c)
	if !ok {
		errorJSON(c, http.StatusNotFound, "Item not found")
		return
	}

	if err := app.MarketRepository.DeleteByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "Item not found")
			return
		}
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}
