package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agri4/agri-server/internal/app"
	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/db/drivers"
	"github.com/agri4/agri-server/internal/db/migrations"
	"github.com/agri4/agri-server/internal/db/models"
	"github.com/agri4/agri-server/internal/utils/hashutil"
	"github.com/agri4/agri-server/internal/utils/randutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg *config.Config, withDB bool) *app.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var opts []app.OptionFunc
	if withDB {
		driver, err := drivers.NewSQLiteDriver(context.Background(), ":memory:")
		require.NoError(t, err)
		_, err = migrations.Migrate(context.Background(), driver.GetDB())
		require.NoError(t, err)
		opts = append(opts, app.WithDB(driver))
	}

	a, err := app.NewApp(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func newRouter(a *app.App, handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("app", a)
		c.Next()
	})
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(UserIDKey)})
	})
	r.GET("/protected", handlers...)
	return r
}

func get(r http.Handler, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKeyMiddleware(t *testing.T) {
	a := newTestApp(t, &config.Config{Environment: "test"}, true)
	r := newRouter(a, APIKeyMiddleware)

	key, err := randutil.PrefixedKey("agri", 32)
	require.NoError(t, err)
	hash := hashutil.Sha3256Hash([]byte(key))
	_, err = a.APIKeyRepository.Create(context.Background(), models.NewAPIKey(hash, randutil.MaskString(key, 8, 4)))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(r).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, APIKeyHeader, "agri_wrong").Code)
	assert.Equal(t, http.StatusOK, get(r, APIKeyHeader, key).Code)

	require.NoError(t, a.APIKeyRepository.RevokeAPIKeyWithHash(context.Background(), hash))
	w := get(r, APIKeyHeader, key)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestAPIKeyMiddlewareWithoutDatabase(t *testing.T) {
	a := newTestApp(t, &config.Config{Environment: "test"}, false)
	r := newRouter(a, APIKeyMiddleware)

	assert.Equal(t, http.StatusInternalServerError, get(r, APIKeyHeader, "agri_key").Code)
}

func TestJWTMiddleware(t *testing.T) {
	cfg := &config.Config{Environment: "test", Auth: &config.AuthConfig{JWTSecret: "secret"}}
	r := newRouter(newTestApp(t, cfg, false), JWTMiddleware)

	token, err := IssueToken("secret", "user-1", time.Hour)
	require.NoError(t, err)

	w := get(r, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-1"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", "Basic abc").Code)

	forged, err := IssueToken("other-secret", "user-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", "Bearer "+forged).Code)

	expired, err := IssueToken("secret", "user-1", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", "Bearer "+expired).Code)
}

func TestJWTMiddlewareWithoutSecret(t *testing.T) {
	r := newRouter(newTestApp(t, &config.Config{Environment: "test"}, false), JWTMiddleware)

	assert.Equal(t, http.StatusServiceUnavailable, get(r, "Authorization", "Bearer abc.def.ghi").Code)
}

func TestParseTokenRejectsEmptySubject(t *testing.T) {
	token, err := IssueToken("secret", "", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(60, 2)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	now = now.Add(limiterIdleTTL + time.Second)
	limiter.Allow("10.0.0.3")
	assert.Len(t, limiter.visitors, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	a := newTestApp(t, &config.Config{Environment: "test"}, false)
	r := newRouter(a, NewIPRateLimiter(60, 1).Middleware())

	assert.Equal(t, http.StatusOK, get(r).Code)
	w := get(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests, please slow down","status":429}`, w.Body.String())

	unlimited := newRouter(a, NewIPRateLimiter(0, 1).Middleware())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(unlimited).Code)
	}
}
