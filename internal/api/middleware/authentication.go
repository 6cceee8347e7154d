package middleware

import (
	"errors"
	"net/http"

	"github.com/agri4/agri-server/internal/app"
	"github.com/agri4/agri-server/internal/db/repository"
	"github.com/agri4/agri-server/internal/utils/hashutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware admits requests carrying an unrevoked key in X-API-Key.
// Keys are looked up by their SHA3-256 hash.
func APIKeyMiddleware(ctx *gin.Context) {
	apikey := ctx.Request.Header.Get(APIKeyHeader)
	app := ctx.MustGet("app").(*app.App)

	if apikey == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized access"})
		return
	}

	if app.APIKeyRepository == nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database connection failed"})
		return
	}

	apikeyHash := hashutil.Sha3256Hash([]byte(apikey))
	result, err := app.APIKeyRepository.GetAPIKeyWithHash(ctx.Request.Context(), apikeyHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "The provided API key is invalid"})
			return
		}

		// Database error
		app.Logger.Error("Database error while checking API key", zap.Error(err))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error checking api-keys in database"})
		return
	}

	if result.IsRevoked {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "The provided API key is revoked"})
		return
	}

	ctx.Next()
}
