package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/agri4/agri-server/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	UserIDKey = "user_id"
	issuer    = "agri-server"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrNoJWTSecret  = errors.New("JWT secret is not configured")
)

// IssueToken signs an HS256 token whose subject is the user id.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoJWTSecret
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates the token and returns its subject.
func ParseToken(secret, token string) (string, error) {
	if secret == "" {
		return "", ErrNoJWTSecret
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}

	return claims.Subject, nil
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// JWTMiddleware requires a valid bearer token and stores its subject under
// UserIDKey.
func JWTMiddleware(ctx *gin.Context) {
	app := ctx.MustGet("app").(*app.App)

	token, err := bearerToken(ctx.GetHeader("Authorization"))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized access"})
		return
	}

	var secret string
	if app.Config().Auth != nil {
		secret = app.Config().Auth.JWTSecret
	}

	userID, err := ParseToken(secret, token)
	if err != nil {
		if errors.Is(err, ErrNoJWTSecret) {
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication is not configured"})
			return
		}
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	ctx.Set(UserIDKey, userID)
	ctx.Next()
}
