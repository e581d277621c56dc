package keypool

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Default retry behavior for scheduled calls
const (
	DefaultCallTimeout    = 30 * time.Second
	DefaultRetryDelay     = 2 * time.Second
	DefaultRateLimitDelay = 5 * time.Second
)

// rateLimitIndicators are textual markers of quota exhaustion in
// provider error messages
var rateLimitIndicators = []string{"429", "quota", "resource exhausted", "rate limit"}

// Generator issues a single model call using the given credential key
type Generator interface {
	Generate(ctx context.Context, key string, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, key string, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, key string, prompt string) (string, error) {
	return f(ctx, key, prompt)
}

// CredentialsExhaustedError is returned when every retry attempt failed
type CredentialsExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *CredentialsExhaustedError) Error() string {
	return fmt.Sprintf("all API keys exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *CredentialsExhaustedError) Unwrap() error {
	return e.LastErr
}

// SchedulerOptions contains configuration options for the Scheduler
type SchedulerOptions struct {
	MaxAttempts    int           // Attempt budget per request (default 2x credential count)
	CallTimeout    time.Duration // Per-call timeout
	RetryDelay     time.Duration // Delay after timeouts and generic errors
	RateLimitDelay time.Duration // Delay after rate-limited errors
}

// Scheduler routes outbound model calls across the credential pool,
// retrying across credentials until success or the attempt budget runs out.
// It is safe for concurrent use; only pool mutations serialize.
type Scheduler struct {
	pool *Pool
	gen  Generator
	opts SchedulerOptions

	// sleep is swappable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewScheduler creates a scheduler over the given pool and generator
func NewScheduler(pool *Pool, gen Generator, opts *SchedulerOptions) *Scheduler {
	s := &Scheduler{
		pool:  pool,
		gen:   gen,
		sleep: sleepContext,
	}

	if opts != nil {
		s.opts = *opts
	}
	if s.opts.MaxAttempts <= 0 {
		s.opts.MaxAttempts = 2 * pool.Len()
	}
	if s.opts.CallTimeout <= 0 {
		s.opts.CallTimeout = DefaultCallTimeout
	}
	if s.opts.RetryDelay <= 0 {
		s.opts.RetryDelay = DefaultRetryDelay
	}
	if s.opts.RateLimitDelay <= 0 {
		s.opts.RateLimitDelay = DefaultRateLimitDelay
	}

	return s
}

// Pool returns the underlying credential pool
func (s *Scheduler) Pool() *Pool {
	return s.pool
}

// Generate issues the prompt through the best available credential,
// retrying across credentials on failure. The first success wins; if the
// attempt budget is exhausted a *CredentialsExhaustedError is returned.
func (s *Scheduler) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		idx, key := s.pool.Select()

		callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		text, err := s.gen.Generate(callCtx, key, prompt)
		cancel()

		if err == nil {
			s.pool.ReportSuccess(idx)
			return strings.TrimSpace(text), nil
		}

		lastErr = err

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			log.Printf("[KEYPOOL]: Timeout on key %d (attempt %d)", idx+1, attempt)
			s.pool.ReportFailure(idx, false)
			if err := s.sleep(ctx, s.opts.RetryDelay); err != nil {
				return "", err
			}

		case IsRateLimitError(err):
			log.Printf("[KEYPOOL]: Rate limit on key %d (attempt %d): %v", idx+1, attempt, err)
			s.pool.ReportFailure(idx, true)
			if err := s.sleep(ctx, s.opts.RateLimitDelay); err != nil {
				return "", err
			}

		default:
			log.Printf("[KEYPOOL]: Error on key %d (attempt %d): %v", idx+1, attempt, err)
			s.pool.ReportFailure(idx, false)
			if err := s.sleep(ctx, s.opts.RetryDelay); err != nil {
				return "", err
			}
		}
	}

	return "", &CredentialsExhaustedError{
		Attempts: s.opts.MaxAttempts,
		LastErr:  lastErr,
	}
}

// IsRateLimitError reports whether the error signals quota or rate limit
// exhaustion based on known textual indicators
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range rateLimitIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// sleepContext waits for the duration or until the context is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
