package ai

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
)

const (
	DefaultAttemptTimeout = 60 * time.Second
	defaultBackoff        = 500 * time.Millisecond
)

// RetryingGenerator bounds every attempt with a timeout and retries
// transient failures up to MaxRetries times.
type RetryingGenerator struct {
	Next           Generator
	AttemptTimeout time.Duration
	MaxRetries     int
	Backoff        time.Duration
}

func NewRetryingGenerator(next Generator, attemptTimeout time.Duration, maxRetries int) *RetryingGenerator {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryingGenerator{
		Next:           next,
		AttemptTimeout: attemptTimeout,
		MaxRetries:     maxRetries,
		Backoff:        defaultBackoff,
	}
}

func (g *RetryingGenerator) Configured() bool {
	return g != nil && g.Next != nil && g.Next.Configured()
}

func (g *RetryingGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	wait := g.Backoff
	var lastErr error
	for attempt := 0; attempt <= g.MaxRetries; attempt++ {
		text, err := g.attempt(ctx, prompt, opts)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsTransient(err) || attempt == g.MaxRetries {
			break
		}
		log.Printf("llm attempt %d failed, retrying: %v", attempt+1, err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return "", lastErr
}

func (g *RetryingGenerator) attempt(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.AttemptTimeout)
	defer cancel()
	return g.Next.Generate(attemptCtx, prompt, opts)
}

// IsTransient reports whether err is worth one more attempt: server-side
// 5xx replies, network timeouts and per-attempt deadlines. Quota errors
// (429) and other client errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return transientStatus(statusErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
