package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agri4/agri-server/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type fakeAPI struct {
	server *httptest.Server
	calls  atomic.Int32

	mu       sync.Mutex
	requests []capturedRequest
}

func (api *fakeAPI) request(i int) capturedRequest {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.requests[i]
}

// newFakeAPI serves chat completions. statuses are returned for the first
// calls; later calls succeed with reply.
func newFakeAPI(t *testing.T, reply string, statuses ...int) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := int(api.calls.Add(1))
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req capturedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		api.mu.Lock()
		api.requests = append(api.requests, req)
		api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if call <= len(statuses) {
			w.WriteHeader(statuses[call-1])
			fmt.Fprintf(w, `{"error":{"message":"upstream said %d","type":"server_error"}}`, statuses[call-1])
			return
		}

		content, _ := json.Marshal(reply)
		fmt.Fprintf(w, `{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`, content)
	}))
	t.Cleanup(api.server.Close)
	return api
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	client, err := NewClient(&config.OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    api.server.URL + "/v1",
		MaxRetries: 3,
		Timeout:    5 * time.Second,
	}, WithBackoff(time.Millisecond))
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(&config.OpenAIConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestChat(t *testing.T) {
	api := newFakeAPI(t, "Use neem oil.")
	client := newTestClient(t, api)

	history := make([]Message, 8)
	for i := range history {
		history[i] = Message{Role: "user", Content: fmt.Sprintf("message %d", i)}
	}
	history[7].Role = ""

	reply, err := client.Chat(context.Background(), ChatRequest{
		Message:  "How do I treat aphids?",
		History:  history,
		Language: "Hindi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Use neem oil.", reply)

	require.Equal(t, int32(1), api.calls.Load())
	req := api.request(0)
	assert.Equal(t, config.DefaultOpenAIModel, req.Model)
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)

	require.Len(t, req.Messages, 8)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "You MUST provide your response in Hindi language.")
	assert.Equal(t, "message 2", req.Messages[1].Content)
	assert.Equal(t, "user", req.Messages[6].Role)
	assert.Equal(t, "How do I treat aphids?", req.Messages[7].Content)
}

func TestRetryOnOverload(t *testing.T) {
	api := newFakeAPI(t, "ok", http.StatusTooManyRequests, http.StatusServiceUnavailable)
	client := newTestClient(t, api)

	reply, err := client.Chat(context.Background(), ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, int32(3), api.calls.Load())
}

func TestRetryGivesUp(t *testing.T) {
	api := newFakeAPI(t, "never", http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests)
	client := newTestClient(t, api)

	_, err := client.Chat(context.Background(), ChatRequest{Message: "hi"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, int32(3), api.calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	api := newFakeAPI(t, "never", http.StatusBadRequest)
	client := newTestClient(t, api)

	_, err := client.Tips(context.Background(), TipsRequest{CropName: "wheat"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "upstream said 400")
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestConsult(t *testing.T) {
	api := newFakeAPI(t, "```json\n{\"symptoms\": \"curled leaves\"}\n```")
	client := newTestClient(t, api)

	report, err := client.Consult(context.Background(), ConsultRequest{
		PestData: &PestData{Label: "Aphid", Confidence: 0.875},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"symptoms": "curled leaves"}`, report.Clean)
	assert.True(t, strings.HasPrefix(report.Raw, "```json"))

	req := api.request(0)
	assert.Equal(t, 800, req.MaxTokens)
	assert.Equal(t, scientistPrompt, req.Messages[0].Content)
	assert.Contains(t, req.Messages[1].Content, "Pest Detection: Aphid (Confidence: 87.50%)")
	assert.Contains(t, req.Messages[1].Content, "MUST be in English language")
}

func TestConsultFindings(t *testing.T) {
	assert.Equal(t, "leaf spots", ConsultRequest{DiagnosisText: "leaf spots"}.Findings())
	assert.Equal(t, "Pest Detection: Unknown (Confidence: 0.00%)", ConsultRequest{}.Findings())
}

func TestTips(t *testing.T) {
	api := newFakeAPI(t, "{\"harvesting\": \"when golden\"}")
	client := newTestClient(t, api)

	tips, err := client.Tips(context.Background(), TipsRequest{CropName: "Wheat", Language: "Marathi"})
	require.NoError(t, err)
	assert.Equal(t, `{"harvesting": "when golden"}`, tips)

	req := api.request(0)
	assert.InDelta(t, 0.5, req.Temperature, 1e-6)
	assert.Contains(t, req.Messages[1].Content, "cultivation tips for the crop: 'Wheat'")
	assert.Contains(t, req.Messages[1].Content, "in Marathi language")
}

func TestChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Spray ", "early."} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(&config.OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	var parts []string
	err = client.ChatStream(context.Background(), ChatRequest{Message: "when?"}, func(delta string) error {
		parts = append(parts, delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Spray ", "early."}, parts)
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
		"```json {\"a\":1}":       `{"a":1}`,
	}

	for in, want := range tests {
		assert.Equal(t, want, StripCodeFence(in), in)
	}
}
