package ai

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("llm credential not configured")

type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// Generator produces a completion for a single prompt.
type Generator interface {
	// Configured reports whether a usable credential is present. Callers
	// must not call Generate when it returns false.
	Configured() bool
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
