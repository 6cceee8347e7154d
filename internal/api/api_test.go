package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agri4/agri-server/internal/app"
	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/db/drivers"
	"github.com/agri4/agri-server/internal/db/migrations"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Filesystem:  config.FilesystemLocal,
		AssetsDir:   t.TempDir(),
		TempDir:     t.TempDir(),
		PublicURL:   "http://localhost:8881",
		Auth:        &config.AuthConfig{JWTSecret: testJWTSecret, TokenTTL: time.Hour},
	}
}

// newTestApp returns an app backed by a migrated in-memory database.
func newTestApp(t *testing.T, cfg *config.Config, opts ...app.OptionFunc) *app.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	driver, err := drivers.NewSQLiteDriver(context.Background(), ":memory:")
	require.NoError(t, err)
	_, err = migrations.Migrate(context.Background(), driver.GetDB())
	require.NoError(t, err)

	a, err := app.NewApp(cfg, append([]app.OptionFunc{app.WithDB(driver)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func newTestRouter(a *app.App) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("app", a)
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doUpload(r http.Handler, path, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" || content != nil {
		part, _ := writer.CreateFormFile("file", filename)
		part.Write(content)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
