package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/agri4/agri-server/internal/db/models"
	"github.com/agri4/agri-server/internal/db/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const missingPostFields = "Missing required fields: user_id, user_name, content"

type PostRequest struct {
	UserID   string   `json:"user_id"`
	UserName string   `json:"user_name"`
	Content  string   `json:"content"`
	Images   []string `json:"images"`
	Category string   `json:"category"`
}

type CommentRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Content  string `json:"content"`
}

// OwnerRequest identifies the user acting on a post or comment.
type OwnerRequest struct {
	UserID string `json:"user_id"`
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func bindOwner(c *gin.Context) (string, bool) {
	var req OwnerRequest
	if err := bindOptionalJSON(c, &req); err != nil || req.UserID == "" {
		errorJSON(c, http.StatusBadRequest, "user_id required")
		return "", false
	}
	return req.UserID, true
}

func ListPosts(c *gin.Context) {
	app := getApp(c)
	if app.PostRepository == nil {
		dbUnavailable(c)
		return
	}

	limit, err := queryInt(c, "limit", repository.DefaultPostLimit)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "limit must be an integer")
		return
	}
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "skip must be an integer")
		return
	}

	posts, total, err := app.PostRepository.List(c.Request.Context(), repository.PostFilter{
		Category: c.Query("category"),
		Limit:    limit,
		Skip:     skip,
	})
	if err != nil {
		app.Logger.Error("failed to list posts", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "total": total})
}

func CreatePost(c *gin.Context) {
	app := getApp(c)
	if app.PostRepository == nil {
		dbUnavailable(c)
		return
	}

	var req PostRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, missingPostFields)
		return
	}
	if req.UserID == "" || req.UserName == "" || req.Content == "" {
		errorJSON(c, http.StatusBadRequest, missingPostFields)
		return
	}

	post := models.NewPost(req.UserID, req.UserName, req.Content, req.Images, req.Category)

	if app.Moderator != nil {
		decision, err := app.Moderator.Review(c.Request.Context(), post.Category, post.Content)
		switch {
		case err != nil:
			app.Logger.Warn("moderation unavailable, accepting post", zap.Error(err))
		case !decision.Accepted:
			errorJSON(c, http.StatusUnprocessableEntity, decision.Reason)
			return
		}
	}

	post, err := app.PostRepository.Create(c.Request.Context(), post)
	if err != nil {
		app.Logger.Error("failed to create post", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, post)
}

func GetPost(c *gin.Context) {
	app := getApp(c)
	if app.PostRepository == nil {
		dbUnavailable(c)
		return
	}

	post, err := app.PostRepository.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		postError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func DeletePost(c *gin.Context) {
	app := getApp(c)
	if app.PostRepository == nil {
		dbUnavailable(c)
		return
	}

	userID, ok := bindOwner(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	post, err := app.PostRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		postError(c, err)
		return
	}
	if post.UserID != userID {
		errorJSON(c, http.StatusForbidden, "Unauthorized: Can only delete your own posts")
		return
	}

	if err := app.PostRepository.DeleteByID(ctx, post.ID.String()); err != nil {
		postError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func ToggleLike(c *gin.Context) {
	app := getApp(c)
	if app.PostRepository == nil {
		dbUnavailable(c)
		return
	}

	userID, ok := bindOwner(c)
	if !ok {
		return
	}

	liked, count, err := app.PostRepository.ToggleLike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		postError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes_count": count})
}

func ListComments(c *gin.Context) {
	app := getApp(c)
	if app.CommentRepository == nil {
		dbUnavailable(c)
		return
	}

	comments, err := app.CommentRepository.ListByPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func CreateComment(c *gin.Context) {
	app := getApp(c)
	if app.CommentRepository == nil {
		dbUnavailable(c)
		return
	}

	var req CommentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, missingPostFields)
		return
	}
	if req.UserID == "" || req.UserName == "" || req.Content == "" {
		errorJSON(c, http.StatusBadRequest, missingPostFields)
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusNotFound, "Post not found")
		return
	}

	comment, err := app.CommentRepository.Create(c.Request.Context(),
		models.NewComment(postID, req.UserID, req.UserName, req.Content))
	if err != nil {
		postError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func DeleteComment(c *gin.Context) {
	app := getApp(c)
	if app.CommentRepository == nil {
		dbUnavailable(c)
		return
	}

	userID, ok := bindOwner(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	comment, err := app.CommentRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "Comment not found")
			return
		}
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	if comment.UserID != userID {
		errorJSON(c, http.StatusForbidden, "Unauthorized: Can only delete your own comments")
		return
	}

	if err := app.CommentRepository.DeleteByID(ctx, comment.ID.String()); err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func postError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "Post not found")
		return
	}
	errorJSON(c, http.StatusInternalServerError, err.Error())
}
