package model

import (
	"errors"
	"fmt"
)

// Initialization errors are permanent for a Classifier; per-call errors leave
// it untouched.
var (
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrLabelFileMissing = errors.New("label file missing")
	ErrEmptyLabelSet    = errors.New("label file has no labels")
	ErrModelLoadFailed  = errors.New("failed to load model")

	ErrImageDecode     = errors.New("failed to decode image")
	ErrInferenceFailed = errors.New("inference failed")

	ErrUnknownModel     = errors.New("unknown model")
	ErrClassifierClosed = errors.New("classifier closed")
)

// Error ties a cause to one of the sentinel kinds. errors.Is matches the kind
// and errors.Unwrap returns the cause.
type Error struct {
	Kind  error
	Model string
	Err   error
}

func (e *Error) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Model, e.Kind, e.Err)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, model string, err error) error {
	return &Error{Kind: kind, Model: model, Err: err}
}
