package api

import (
	"errors"
	"net/http"

	"github.com/agri4/agri-server/internal/metrics"
	"github.com/agri4/agri-server/internal/services/filestorage"
	"github.com/agri4/agri-server/internal/services/fileuploader"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func UploadFile(c *gin.Context) {
	app := getApp(c)

	content, _, err := readFormFile(c)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	uploader := app.Uploader()
	if uploader == nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		errorJSON(c, http.StatusServiceUnavailable, fileuploader.ErrNoStorage.Error())
		return
	}

	result, err := uploader.UploadImage(c.Request.Context(), content)
	if err != nil {
		if errors.Is(err, fileuploader.ErrNotAnImage) || errors.Is(err, fileuploader.ErrEmptyUpload) {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}

		metrics.UploadsTotal.WithLabelValues("error").Inc()
		app.Logger.Error("failed to upload file", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "failed to upload file")
		return
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data": map[string]string{
			"url": result.URL,
		},
	})
}

func GetFile(c *gin.Context) {
	app := getApp(c)
	storage := app.FileStorage()
	if storage == nil {
		errorJSON(c, http.StatusServiceUnavailable, fileuploader.ErrNoStorage.Error())
		return
	}

	file, err := storage.GetFile(c.Request.Context(), c.Param("filename"))
	if err != nil {
		if errors.Is(err, filestorage.ErrFileNotFound) {
			errorJSON(c, http.StatusNotFound, "file not found")
			return
		}
		app.Logger.Error("failed to read file", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "failed to read file")
		return
	}

	c.Data(http.StatusOK, file.ContentType, file.Content)
}
