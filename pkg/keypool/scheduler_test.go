package keypool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSleep removes retry delays so tests run instantly
func noSleep(s *Scheduler) {
	s.sleep = func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}
}

func TestSchedulerGenerate(t *testing.T) {
	t.Run("returns trimmed text on success", func(t *testing.T) {
		pool, _ := newTestPool(2, time.Minute)
		gen := GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			return "  hello\n", nil
		})

		s := NewScheduler(pool, gen, nil)
		noSleep(s)

		text, err := s.Generate(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, "hello", text)

		stats := pool.Stats()
		assert.Equal(t, 1, stats[0].UsageCount)
	})

	t.Run("exhausts after exactly 2N attempts when all credentials fail", func(t *testing.T) {
		pool, _ := newTestPool(3, time.Minute)

		var calls atomic.Int32
		gen := GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			calls.Add(1)
			return "", errors.New("backend unavailable")
		})

		s := NewScheduler(pool, gen, nil)
		noSleep(s)

		_, err := s.Generate(context.Background(), "prompt")
		require.Error(t, err)

		var exhausted *CredentialsExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 6, exhausted.Attempts)
		assert.Equal(t, int32(6), calls.Load())
		assert.Contains(t, exhausted.Error(), "backend unavailable")
	})

	t.Run("routes around a rate limited credential", func(t *testing.T) {
		pool, _ := newTestPool(2, time.Minute)

		var usedKeys []string
		gen := GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			usedKeys = append(usedKeys, key)
			if key == "key-a" {
				return "", errors.New("429: resource exhausted")
			}
			return "response from b", nil
		})

		s := NewScheduler(pool, gen, &SchedulerOptions{MaxAttempts: 20})
		noSleep(s)

		// First call hits key-a, fails rate-limited, then succeeds on key-b.
		// Every subsequent call must stay on key-b while key-a cools down.
		for i := 0; i < 5; i++ {
			text, err := s.Generate(context.Background(), fmt.Sprintf("prompt %d", i))
			require.NoError(t, err)
			assert.Equal(t, "response from b", text)
		}

		assert.Equal(t, "key-a", usedKeys[0])
		for _, key := range usedKeys[1:] {
			assert.Equal(t, "key-b", key)
		}
	})

	t.Run("classifies timeout as non rate limited failure", func(t *testing.T) {
		pool, _ := newTestPool(1, time.Minute)
		gen := GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			return "", context.DeadlineExceeded
		})

		s := NewScheduler(pool, gen, &SchedulerOptions{MaxAttempts: 1})
		noSleep(s)

		_, err := s.Generate(context.Background(), "prompt")
		require.Error(t, err)

		stats := pool.Stats()
		assert.Equal(t, 1, stats[0].TotalFailures)
		assert.Equal(t, time.Minute, stats[0].CooldownRemaining)
	})

	t.Run("stops retrying when the caller context is cancelled", func(t *testing.T) {
		pool, _ := newTestPool(2, time.Minute)
		gen := GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			return "", errors.New("transient")
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := NewScheduler(pool, gen, nil)
		noSleep(s)

		_, err := s.Generate(ctx, "prompt")
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("safe under concurrent callers", func(t *testing.T) {
		pool, _ := newTestPool(4, time.Minute)
		gen := GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			return "ok", nil
		})

		s := NewScheduler(pool, gen, nil)
		noSleep(s)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Generate(context.Background(), "prompt")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		total := 0
		for _, stat := range pool.Stats() {
			total += stat.UsageCount
		}
		assert.Equal(t, 16, total)
	})
}

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, IsRateLimitError(nil))
	assert.False(t, IsRateLimitError(errors.New("connection refused")))

	assert.True(t, IsRateLimitError(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, IsRateLimitError(errors.New("Quota exceeded for project")))
	assert.True(t, IsRateLimitError(errors.New("RESOURCE EXHAUSTED")))
	assert.True(t, IsRateLimitError(errors.New("rate limit reached")))
}
