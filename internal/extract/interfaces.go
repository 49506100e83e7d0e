package extract

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-scoring/internal/domain"
)

// ModelClient sends one prompt to a language model and returns its raw text.
// Implementations must be safe for concurrent use.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelClientFunc adapts a function to ModelClient.
type ModelClientFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements ModelClient.
func (f ModelClientFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// WindowError reports an unusable window. It matches
// domain.ErrExtractionParseFailure under errors.Is.
type WindowError struct {
	Window    int
	StartLine int
	Err       error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window %d (line %d): %v", e.Window, e.StartLine, e.Err)
}

func (e *WindowError) Unwrap() []error {
	return []error{domain.ErrExtractionParseFailure, e.Err}
}
