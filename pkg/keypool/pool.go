package keypool

import (
	"sync"
	"time"
)

// DefaultCooldown is the base cooldown window applied to a credential
// after a failed call
const DefaultCooldown = 60 * time.Second

// credential tracks the health of one configured API key
type credential struct {
	key                 string
	usageCount          int
	consecutiveFailures int
	totalFailures       int
	cooldownUntil       time.Time
	lastUsed            time.Time
	lastSuccess         time.Time
}

// Stat is a point-in-time snapshot of one credential's health
type Stat struct {
	KeyNumber           int
	UsageCount          int
	ConsecutiveFailures int
	TotalFailures       int
	InCooldown          bool
	CooldownRemaining   time.Duration
	TimeSinceSuccess    time.Duration
}

// Pool tracks health and cooldown state for a fixed set of API credentials.
// All mutation goes through one mutex so the select/report cycle is atomic
// per call; many requests may still be in flight concurrently.
type Pool struct {
	mu       sync.Mutex
	creds    []credential
	cooldown time.Duration

	// now is swappable for tests
	now func() time.Time
}

// NewPool creates a credential pool over the given API keys.
// A non-positive cooldown falls back to DefaultCooldown.
func NewPool(keys []string, cooldown time.Duration) *Pool {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	p := &Pool{
		creds:    make([]credential, len(keys)),
		cooldown: cooldown,
		now:      time.Now,
	}

	start := p.now()
	for i, key := range keys {
		p.creds[i] = credential{
			key:         key,
			lastUsed:    start,
			lastSuccess: start,
		}
	}

	return p
}

// Len returns the number of configured credentials
func (p *Pool) Len() int {
	return len(p.creds)
}

// Select picks the best available credential and returns its index and key.
// Credentials in cooldown are skipped; among the rest the one with the
// highest priority score wins (heavy penalty for consecutive failures,
// light penalty for usage, small bonus for rest time). If every credential
// is cooling down, the one whose cooldown expires soonest is returned, so
// Select never blocks.
func (p *Pool) Select() (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()

	bestIdx := -1
	bestScore := 0.0
	for i := range p.creds {
		c := &p.creds[i]
		if now.Before(c.cooldownUntil) {
			continue
		}

		score := float64(-100*c.consecutiveFailures) -
			float64(c.usageCount) +
			now.Sub(c.lastUsed).Seconds()/10

		if bestIdx == -1 || score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx == -1 {
		// Everything is cooling down, take the soonest to recover
		bestIdx = 0
		for i := 1; i < len(p.creds); i++ {
			if p.creds[i].cooldownUntil.Before(p.creds[bestIdx].cooldownUntil) {
				bestIdx = i
			}
		}
	}

	return bestIdx, p.creds[bestIdx].key
}

// ReportSuccess records a successful call on the credential. A short
// cooldown (half the base window) is applied even on success so load
// spreads across credentials instead of starving the rest.
func (p *Pool) ReportSuccess(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	c := &p.creds[idx]
	c.usageCount++
	c.consecutiveFailures = 0
	c.lastUsed = now
	c.lastSuccess = now
	c.cooldownUntil = now.Add(p.cooldown / 2)
}

// ReportFailure records a failed call on the credential. Rate-limited
// failures get a capped exponential cooldown (base * min(consecutive, 5));
// other failures get the base cooldown.
func (p *Pool) ReportFailure(idx int, rateLimited bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	c := &p.creds[idx]
	c.consecutiveFailures++
	c.totalFailures++

	if rateLimited {
		multiplier := min(c.consecutiveFailures, 5)
		c.cooldownUntil = now.Add(p.cooldown * time.Duration(multiplier))
	} else {
		c.cooldownUntil = now.Add(p.cooldown)
	}
}

// Stats returns a snapshot of every credential's health
func (p *Pool) Stats() []Stat {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	stats := make([]Stat, len(p.creds))
	for i := range p.creds {
		c := &p.creds[i]
		remaining := c.cooldownUntil.Sub(now)
		if remaining < 0 {
			remaining = 0
		}

		stats[i] = Stat{
			KeyNumber:           i + 1,
			UsageCount:          c.usageCount,
			ConsecutiveFailures: c.consecutiveFailures,
			TotalFailures:       c.totalFailures,
			InCooldown:          remaining > 0,
			CooldownRemaining:   remaining,
			TimeSinceSuccess:    now.Sub(c.lastSuccess),
		}
	}

	return stats
}
