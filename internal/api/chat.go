package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/agri4/agri-server/internal/metrics"
	"github.com/agri4/agri-server/internal/services/llm"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requireLLM(c *gin.Context) (*llm.Client, bool) {
	client := getApp(c).LLM
	if client == nil {
		errorJSON(c, http.StatusServiceUnavailable, llm.ErrNotConfigured.Error())
		return nil, false
	}
	return client, true
}

// llmError mirrors the upstream status when there is one.
func llmError(c *gin.Context, err error) {
	var apiErr *llm.APIError
	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": apiErr.Error(), "status": apiErr.Status})
	case errors.Is(err, llm.ErrEmptyResponse):
		errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		errorJSON(c, http.StatusGatewayTimeout, "AI request timed out")
	default:
		getApp(c).Logger.Error("AI request failed", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, err.Error())
	}
}

func Chat(c *gin.Context) {
	client, ok := requireLLM(c)
	if !ok {
		return
	}

	var req llm.ChatRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if req.Message == "" {
		errorJSON(c, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := client.Chat(c.Request.Context(), req)
	metrics.ObserveLLM("chat", err)
	if err != nil {
		llmError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// ChatStream sends the reply as server-sent "message" events followed by a
// "done" event.
func ChatStream(c *gin.Context) {
	client, ok := requireLLM(c)
	if !ok {
		return
	}

	var req llm.ChatRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if req.Message == "" {
		errorJSON(c, http.StatusBadRequest, "Message is required")
		return
	}

	started := false
	err := client.ChatStream(c.Request.Context(), req, func(delta string) error {
		if !started {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			started = true
		}
		c.SSEvent("message", delta)
		c.Writer.Flush()
		return c.Request.Context().Err()
	})
	metrics.ObserveLLM("chat_stream", err)

	if err != nil {
		if !started {
			llmError(c, err)
			return
		}
		c.SSEvent("error", err.Error())
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", "")
	c.Writer.Flush()
}

func Consult(c *gin.Context) {
	client, ok := requireLLM(c)
	if !ok {
		return
	}

	var req llm.ConsultRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "failed to parse request body")
		return
	}

	report, err := client.Consult(c.Request.Context(), req)
	metrics.ObserveLLM("consult", err)
	if err != nil {
		llmError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func ConsultTest(c *gin.Context) {
	app := getApp(c)

	resp := gin.H{
		"status":         "OpenAI API Mode Active",
		"api_configured": app.LLM != nil,
	}
	if app.LLM != nil {
		resp["model"] = app.LLM.Model()
	}

	c.JSON(http.StatusOK, resp)
}

func Tips(c *gin.Context) {
	client, ok := requireLLM(c)
	if !ok {
		return
	}

	var req llm.TipsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if req.CropName == "" {
		errorJSON(c, http.StatusBadRequest, "Crop name is required")
		return
	}

	tips, err := client.Tips(c.Request.Context(), req)
	metrics.ObserveLLM("tips", err)
	if err != nil {
		llmError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"crop":    req.CropName,
		"data":    tips,
	})
}
