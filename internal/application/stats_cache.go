package application

import (
	"sync"
	"time"
)

// statsCache memoizes the computed dashboard snapshot so bursts of dashboard
// requests do not re-scan all resources and occurrences.
type statsCache struct {
	mu        sync.RWMutex
	now       func() time.Time
	ttl       time.Duration
	stats     DashboardStats
	expiresAt time.Time
	valid     bool
}

func newStatsCache(ttl time.Duration, now func() time.Time) *statsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &statsCache{now: now, ttl: ttl}
}

func (c *statsCache) Get() (DashboardStats, bool) {
	if c == nil {
		return DashboardStats{}, false
	}
	c.mu.RLock()
	stats, expiresAt, valid := c.stats, c.expiresAt, c.valid
	c.mu.RUnlock()

	if !valid || c.now().After(expiresAt) {
		return DashboardStats{}, false
	}
	return stats, true
}

func (c *statsCache) Store(stats DashboardStats) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.stats = stats
	c.expiresAt = c.now().Add(c.ttl)
	c.valid = true
	c.mu.Unlock()
}

func (c *statsCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
