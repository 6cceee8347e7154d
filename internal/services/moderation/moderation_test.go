package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agri4/agri-server/internal/config"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		verdict  Verdict
		accepted bool
		reason   string
	}{
		{"clean", Verdict{}, true, ""},
		{"spam wins", Verdict{Spam: true, OffTopic: true, Reason: "sells phones"}, false, "post rejected as spam: sells phones"},
		{"abusive", Verdict{Abusive: true}, false, "post rejected as abusive content"},
		{"off topic", Verdict{OffTopic: true, Reason: " cricket scores "}, false, "post rejected as not related to farming: cricket scores"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(&tt.verdict)
			assert.Equal(t, tt.accepted, decision.Accepted)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

func TestNewDisabled(t *testing.T) {
	m, err := New(&config.Config{})
	require.NoError(t, err)

	decision, err := m.Review(context.Background(), "general", "anything")
	require.NoError(t, err)
	assert.True(t, decision.Accepted)

	_, err = New(&config.Config{Moderation: &config.ModerationConfig{Enabled: true}})
	assert.Error(t, err)
}

func TestLLMModeratorReview(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		verdict, _ := json.Marshal(`{"spam": true, "abusive": false, "off_topic": false, "reason": "link farm"}`)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","logprobs":null,"message":{"role":"assistant","content":%s,"refusal":null}}]}`, verdict)
	}))
	t.Cleanup(server.Close)

	m := NewLLMModerator("", option.WithAPIKey("test-key"), option.WithBaseURL(server.URL+"/v1/"), option.WithMaxRetries(0))

	decision, err := m.Review(context.Background(), "market", "buy cheap followers at example.com")
	require.NoError(t, err)
	assert.False(t, decision.Accepted)
	assert.Equal(t, "post rejected as spam: link farm", decision.Reason)

	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	format, _ := gotBody["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
}

func TestLLMModeratorUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	t.Cleanup(server.Close)

	m := NewLLMModerator("gpt-4o-mini", option.WithAPIKey("bad"), option.WithBaseURL(server.URL+"/v1/"), option.WithMaxRetries(0))

	_, err := m.Review(context.Background(), "general", "hello")
	assert.ErrorContains(t, err, "moderation request failed")
}
