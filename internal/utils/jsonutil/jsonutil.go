package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Unmarshal decodes JSON text produced by a language model into T. Unknown
// fields are ignored, surrounding whitespace is allowed.
func Unmarshal[T any](text string) (*T, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty JSON document")
	}

	var target T
	if err := json.Unmarshal([]byte(text), &target); err != nil {
		return nil, err
	}

	return &target, nil
}
