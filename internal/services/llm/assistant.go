package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultLanguage = "English"
	historyWindow   = 6
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message  string    `json:"message"`
	History  []Message `json:"history"`
	Language string    `json:"language"`
}

type PestData struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type ConsultRequest struct {
	DiagnosisText string    `json:"diagnosis_text"`
	PestData      *PestData `json:"pest_data"`
	Language      string    `json:"language"`
}

type ConsultReport struct {
	Raw   string `json:"raw"`
	Clean string `json:"clean"`
}

type TipsRequest struct {
	CropName string `json:"crop_name"`
	Language string `json:"language"`
}

func language(lang string) string {
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

func chatMessages(req ChatRequest) ([]openai.ChatCompletionMessage, error) {
	system, err := render(assistantTmpl, struct{ Language string }{language(req.Language)})
	if err != nil {
		return nil, err
	}

	history := req.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, msg := range history {
		role := msg.Role
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message})

	return messages, nil
}

// Chat answers a farmer's message using the last few history messages as
// context.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	messages, err := chatMessages(req)
	if err != nil {
		return "", err
	}

	return c.complete(ctx, openai.ChatCompletionRequest{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   500,
	})
}

// ChatStream is Chat with the reply delivered in fragments.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, onDelta func(string) error) error {
	messages, err := chatMessages(req)
	if err != nil {
		return err
	}

	return c.stream(ctx, openai.ChatCompletionRequest{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   500,
	}, onDelta)
}

// Findings is the detection summary given to the model: the diagnosis text
// when present, otherwise the pest label and confidence.
func (r ConsultRequest) Findings() string {
	if r.DiagnosisText != "" {
		return r.DiagnosisText
	}

	pest := PestData{Label: "Unknown"}
	if r.PestData != nil {
		pest = *r.PestData
		if pest.Label == "" {
			pest.Label = "Unknown"
		}
	}
	return fmt.Sprintf("Pest Detection: %s (Confidence: %.2f%%)", pest.Label, pest.Confidence*100)
}

// Consult asks for a structured JSON report about a detection.
func (c *Client) Consult(ctx context.Context, req ConsultRequest) (*ConsultReport, error) {
	prompt, err := render(consultTmpl, struct{ Findings, Language string }{req.Findings(), language(req.Language)})
	if err != nil {
		return nil, err
	}

	raw, err := c.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scientistPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, err
	}

	return &ConsultReport{Raw: raw, Clean: StripCodeFence(raw)}, nil
}

// Tips returns cultivation tips for a crop as JSON text.
func (c *Client) Tips(ctx context.Context, req TipsRequest) (string, error) {
	prompt, err := render(tipsTmpl, struct{ CropName, Language string }{req.CropName, language(req.Language)})
	if err != nil {
		return "", err
	}

	raw, err := c.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scientistPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.5,
		MaxTokens:   800,
	})
	if err != nil {
		return "", err
	}

	return StripCodeFence(raw), nil
}
