package llm

import "strings"

// StripCodeFence removes a leading markdown code fence, with or without a
// "json" tag, and returns the fenced text. Text without a fence is only
// trimmed.
func StripCodeFence(text string) string {
	clean := strings.TrimSpace(text)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}

	parts := strings.SplitN(clean, "```", 3)
	clean = strings.TrimPrefix(parts[1], "json")
	return strings.TrimSpace(clean)
}
