package keypool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance pool time deterministically
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time {
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func newTestPool(n int, cooldown time.Duration) (*Pool, *fakeClock) {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "key-" + string(rune('a'+i))
	}

	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	pool := NewPool(keys, cooldown)
	pool.now = clock.now
	return pool, clock
}

func TestPoolSelect(t *testing.T) {
	t.Run("ties break to lowest index", func(t *testing.T) {
		pool, _ := newTestPool(3, time.Minute)

		idx, key := pool.Select()
		assert.Equal(t, 0, idx)
		assert.Equal(t, "key-a", key)
	})

	t.Run("skips credentials in cooldown", func(t *testing.T) {
		pool, clock := newTestPool(3, time.Minute)

		pool.ReportFailure(0, false)
		clock.advance(time.Second)

		idx, _ := pool.Select()
		assert.Equal(t, 1, idx)
	})

	t.Run("penalizes consecutive failures", func(t *testing.T) {
		pool, clock := newTestPool(2, time.Minute)

		pool.ReportFailure(0, false)
		clock.advance(2 * time.Minute) // cooldown expired, failure count remains

		idx, _ := pool.Select()
		assert.Equal(t, 1, idx)
	})

	t.Run("all cooling picks soonest expiry", func(t *testing.T) {
		pool, clock := newTestPool(3, time.Minute)

		// Rate-limited failures stack cooldown multipliers
		pool.ReportFailure(0, true)
		pool.ReportFailure(0, true) // 2x base
		pool.ReportFailure(1, true) // 1x base
		pool.ReportFailure(2, true)
		pool.ReportFailure(2, true)
		pool.ReportFailure(2, true) // 3x base

		clock.advance(time.Second)

		idx, _ := pool.Select()
		assert.Equal(t, 1, idx)
	})

	t.Run("never returns cooling credential while one is available", func(t *testing.T) {
		pool, clock := newTestPool(4, time.Minute)

		pool.ReportFailure(0, true)
		pool.ReportFailure(1, false)
		pool.ReportFailure(3, true)
		clock.advance(time.Second)

		for i := 0; i < 10; i++ {
			idx, _ := pool.Select()
			assert.Equal(t, 2, idx)
		}
	})
}

func TestPoolReportSuccess(t *testing.T) {
	pool, clock := newTestPool(2, time.Minute)

	pool.ReportFailure(0, true)
	clock.advance(2 * time.Minute)
	pool.ReportSuccess(0)

	stats := pool.Stats()
	assert.Equal(t, 1, stats[0].UsageCount)
	assert.Equal(t, 0, stats[0].ConsecutiveFailures)
	assert.Equal(t, 1, stats[0].TotalFailures)

	// Short cooldown after success spreads load to the other credential
	assert.True(t, stats[0].InCooldown)
	assert.Equal(t, 30*time.Second, stats[0].CooldownRemaining)

	idx, _ := pool.Select()
	assert.Equal(t, 1, idx)
}

func TestPoolReportFailure(t *testing.T) {
	t.Run("generic failure uses base cooldown", func(t *testing.T) {
		pool, _ := newTestPool(1, time.Minute)

		pool.ReportFailure(0, false)

		stats := pool.Stats()
		assert.Equal(t, time.Minute, stats[0].CooldownRemaining)
	})

	t.Run("rate limit cooldown scales with consecutive failures capped at 5", func(t *testing.T) {
		pool, _ := newTestPool(1, time.Minute)

		for k := 1; k <= 8; k++ {
			pool.ReportFailure(0, true)

			expected := time.Duration(min(k, 5)) * time.Minute
			stats := pool.Stats()
			assert.Equal(t, expected, stats[0].CooldownRemaining, "after %d consecutive failures", k)
		}
	})

	t.Run("success resets the multiplier", func(t *testing.T) {
		pool, clock := newTestPool(1, time.Minute)

		pool.ReportFailure(0, true)
		pool.ReportFailure(0, true)
		clock.advance(10 * time.Minute)
		pool.ReportSuccess(0)
		clock.advance(time.Minute)

		pool.ReportFailure(0, true)
		stats := pool.Stats()
		assert.Equal(t, time.Minute, stats[0].CooldownRemaining)
	})
}

func TestPoolStats(t *testing.T) {
	pool, clock := newTestPool(2, time.Minute)

	pool.ReportSuccess(0)
	pool.ReportFailure(1, false)
	clock.advance(10 * time.Second)

	stats := pool.Stats()
	require.Len(t, stats, 2)

	assert.Equal(t, 1, stats[0].KeyNumber)
	assert.Equal(t, 1, stats[0].UsageCount)
	assert.Equal(t, 10*time.Second, stats[0].TimeSinceSuccess)

	assert.Equal(t, 2, stats[1].KeyNumber)
	assert.Equal(t, 1, stats[1].TotalFailures)
	assert.True(t, stats[1].InCooldown)
	assert.Equal(t, 50*time.Second, stats[1].CooldownRemaining)
}
