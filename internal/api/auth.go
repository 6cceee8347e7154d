package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/agri4/agri-server/internal/api/middleware"
	"github.com/agri4/agri-server/internal/db/models"
	"github.com/agri4/agri-server/internal/db/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Register(c *gin.Context) {
	app := getApp(c)
	if app.UserRepository == nil {
		dbUnavailable(c)
		return
	}

	var req RegisterRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "failed to parse request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		errorJSON(c, http.StatusBadRequest, "Missing email or password")
		return
	}

	ctx := c.Request.Context()
	_, err := app.UserRepository.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		errorJSON(c, http.StatusBadRequest, "User already exists")
		return
	case !errors.Is(err, repository.ErrNotFound):
		app.Logger.Error("failed to look up user", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "failed to register user")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := app.UserRepository.Create(ctx, models.NewUser(req.Name, req.Email, string(hash)))
	if err != nil {
		app.Logger.Error("failed to create user", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "failed to register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

func Login(c *gin.Context) {
	app := getApp(c)
	if app.UserRepository == nil {
		dbUnavailable(c)
		return
	}

	var req LoginRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		errorJSON(c, http.StatusBadRequest, "Missing email or password")
		return
	}

	user, err := app.UserRepository.GetByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			app.Logger.Error("failed to look up user", zap.Error(err))
		}
		errorJSON(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		errorJSON(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	resp := gin.H{
		"message": "Login successful",
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	}

	auth := app.Config().Auth
	if auth == nil || auth.JWTSecret == "" {
		app.Logger.Warn("JWT secret not set, login response carries no token")
	} else {
		token, err := middleware.IssueToken(auth.JWTSecret, user.ID.String(), auth.TokenTTL)
		if err != nil {
			app.Logger.Error("failed to issue token", zap.Error(err))
			errorJSON(c, http.StatusInternalServerError, "failed to issue token")
			return
		}
		resp["token"] = token
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the user identified by the bearer token.
func Me(c *gin.Context) {
	app := getApp(c)
	if app.UserRepository == nil {
		dbUnavailable(c)
		return
	}

	user, err := app.UserRepository.GetByID(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "User not found")
			return
		}
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
