package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/agri4/agri-server/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	ErrMissingFile   = errors.New("Missing 'file' in multipart form-data")
	ErrEmptyFilename = errors.New("Empty filename")
)

func getApp(c *gin.Context) *app.App {
	return c.MustGet("app").(*app.App)
}

func errorJSON(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// readFormFile returns the content of the multipart "file" field.
func readFormFile(c *gin.Context) ([]byte, string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, "", ErrMissingFile
	}
	if header.Filename == "" {
		return nil, "", ErrEmptyFilename
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}

	return content, header.Filename, nil
}

// bindOptionalJSON binds the body into obj, treating an empty body as {}.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func dbUnavailable(c *gin.Context) {
	errorJSON(c, http.StatusInternalServerError, "Database connection failed")
}

// parseID returns the canonical form of the ":id" path parameter.
func parseID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
