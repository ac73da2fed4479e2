package ai

import (
	"context"
	"errors"
	"fmt"
)

// TextGenerator sends a prompt to a generative-text provider and returns the
// text of the first candidate. Implementations return *GenerationError on failure.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int32) (string, error)
}

// ErrorKind classifies a failed generation call.
type ErrorKind string

const (
	// KindTransient covers network errors, timeouts, 429 and 5xx responses.
	KindTransient ErrorKind = "TRANSIENT"
	// KindPermanent covers 4xx responses other than 429.
	KindPermanent ErrorKind = "PERMANENT"
	// KindMalformedResponse is a 2xx response without a usable candidate.
	KindMalformedResponse ErrorKind = "MALFORMED_RESPONSE"
)

// GenerationError is returned by TextGenerator implementations.
type GenerationError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation failed (%s, status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// KindOf returns the kind of a generation error, or an empty kind for other errors.
func KindOf(err error) ErrorKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ""
}

// IsTransient reports whether err is a transient generation error.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsPermanent reports whether err is a permanent generation error.
func IsPermanent(err error) bool { return KindOf(err) == KindPermanent }
