package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/metrics"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("OPENAI_API_KEY not configured")
	ErrEmptyResponse = errors.New("AI response was empty or malformed")
)

// APIError is a non-retried (or finally failed) upstream response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AI API Error: %s", e.Message)
}

type Client struct {
	client     *openai.Client
	model      string
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

type Option func(*Client)

// WithBackoff sets the base delay; attempt n waits n times this long.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(cfg *config.OpenAIConfig, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	c := &Client{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		backoff:    2 * time.Second,
		logger:     zap.NewNop(),
	}
	if c.model == "" {
		c.model = config.DefaultOpenAIModel
	}
	if c.maxRetries < 1 {
		c.maxRetries = 1
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) Model() string {
	return c.model
}

// complete sends one chat completion, retrying on 429 and 503 only.
func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	req.Model = c.model

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
				return "", ErrEmptyResponse
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = toAPIError(err)
		if !retryable(lastErr) || attempt == c.maxRetries {
			break
		}

		wait := c.backoff * time.Duration(attempt)
		c.logger.Warn("AI API overloaded, retrying",
			zap.Error(lastErr),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait))
		metrics.LLMRetriesTotal.Inc()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	return "", lastErr
}

func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusTooManyRequests || apiErr.Status == http.StatusServiceUnavailable
}

// toAPIError keeps the upstream status of go-openai errors. Transport errors
// are returned unchanged.
func toAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}

	return err
}

// stream opens a streaming completion with the same retry policy as complete
// and calls onDelta for every content fragment.
func (c *Client) stream(ctx context.Context, req openai.ChatCompletionRequest, onDelta func(string) error) error {
	req.Model = c.model
	req.Stream = true

	var (
		stream *openai.ChatCompletionStream
		err    error
	)
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		stream, err = c.client.CreateChatCompletionStream(ctx, req)
		if err == nil {
			break
		}

		err = toAPIError(err)
		if !retryable(err) || attempt == c.maxRetries {
			return err
		}

		metrics.LLMRetriesTotal.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return toAPIError(err)
		}

		if len(response.Choices) > 0 && response.Choices[0].Delta.Content != "" {
			if err := onDelta(response.Choices[0].Delta.Content); err != nil {
				return err
			}
		}
	}
}
