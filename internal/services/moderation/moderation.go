package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/utils/jsonutil"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = `You moderate posts in a community forum for farmers. Evaluate the post and
return a JSON dict:
{
	"spam": (boolean) advertising, scams or repeated junk,
	"abusive": (boolean) insults, harassment, hate or threats,
	"off_topic": (boolean) nothing to do with farming, crops, livestock, weather or rural life,
	"reason": (string) one short sentence explaining any true flag
}
Questions, complaints and posts in any language are fine as long as they are about farming.`

// Verdict is the model's classification of a post.
type Verdict struct {
	Spam     bool   `json:"spam"`
	Abusive  bool   `json:"abusive"`
	OffTopic bool   `json:"off_topic"`
	Reason   string `json:"reason"`
}

type Decision struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type Moderator interface {
	Review(ctx context.Context, category, content string) (*Decision, error)
}

// Noop accepts every post; used when moderation is disabled.
type Noop struct{}

func (Noop) Review(context.Context, string, string) (*Decision, error) {
	return &Decision{Accepted: true}, nil
}

type LLMModerator struct {
	client *openai.Client
	model  string
}

// New returns a Noop moderator unless moderation is enabled.
func New(cfg *config.Config) (Moderator, error) {
	if cfg.Moderation == nil || !cfg.Moderation.Enabled {
		return Noop{}, nil
	}
	if cfg.OpenAI == nil || cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("moderation is enabled but OPENAI_API_KEY is not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.APIKey)}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.OpenAI.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.OpenAI.Timeout))
	}

	return NewLLMModerator(cfg.Moderation.Model, opts...), nil
}

func NewLLMModerator(model string, opts ...option.RequestOption) *LLMModerator {
	if model == "" {
		model = config.DefaultOpenAIModel
	}
	return &LLMModerator{client: openai.NewClient(opts...), model: model}
}

func (m *LLMModerator) classify(ctx context.Context, category, content string) (*Verdict, error) {
	completion, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf("Category: %s\nPost: %s", category, content)),
		}),
		ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONObjectParam{
				Type: openai.F(openai.ResponseFormatJSONObjectTypeJSONObject),
			},
		),
		Model:       openai.F(openai.ChatModel(m.model)),
		Temperature: openai.F(0.0),
	})
	if err != nil {
		return nil, fmt.Errorf("moderation request failed: %w", err)
	}

	if len(completion.Choices) == 0 || len(completion.Choices[0].Message.Content) == 0 {
		return nil, fmt.Errorf("could not moderate post")
	}

	verdict, err := jsonutil.Unmarshal[Verdict](completion.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("could not parse moderation response: %w", err)
	}

	return verdict, nil
}

func (m *LLMModerator) Review(ctx context.Context, category, content string) (*Decision, error) {
	verdict, err := m.classify(ctx, category, content)
	if err != nil {
		return nil, err
	}

	return Evaluate(verdict), nil
}

// Evaluate turns a verdict into a decision. Spam and abuse are rejected before
// off-topic posts so the most serious reason is reported.
func Evaluate(v *Verdict) *Decision {
	var flag string
	switch {
	case v.Spam:
		flag = "spam"
	case v.Abusive:
		flag = "abusive content"
	case v.OffTopic:
		flag = "not related to farming"
	default:
		return &Decision{Accepted: true}
	}

	reason := "post rejected as " + flag
	if detail := strings.TrimSpace(v.Reason); detail != "" {
		reason += ": " + detail
	}
	return &Decision{Accepted: false, Reason: reason}
}
