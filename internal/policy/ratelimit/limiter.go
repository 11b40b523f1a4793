// Package ratelimit throttles submissions per target host so a single site cannot exhaust
// the shared Indexing API quota.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/index-submitter/internal/metrics"
)

// DefaultMaxHosts bounds the number of tracked hosts when Config.MaxHosts is unset.
const DefaultMaxHosts = 10000

// Config holds limiter settings. A non-positive PerHostRPS disables limiting.
type Config struct {
	PerHostRPS float64
	Burst      int
	// MaxHosts caps the number of buckets kept in memory. Defaults to DefaultMaxHosts.
	MaxHosts int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages one token bucket per host. Once MaxHosts buckets exist, refilled
// buckets are dropped first, then the least recently used one.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     rate.Limit
	burst    int
	maxHosts int
	now      func() time.Time
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.PerHostRPS)
	if cfg.PerHostRPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	maxHosts := cfg.MaxHosts
	if maxHosts <= 0 {
		maxHosts = DefaultMaxHosts
	}
	return &Limiter{
		buckets:  make(map[string]*bucket),
		rate:     r,
		burst:    burst,
		maxHosts: maxHosts,
		now:      time.Now,
	}
}

// Allow reports whether a submission for host may proceed now.
func (l *Limiter) Allow(host string) bool {
	if l == nil || l.rate == rate.Inf {
		return true
	}
	key := strings.ToLower(host)
	l.mu.Lock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxHosts {
			l.evict(now)
		}
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	l.mu.Unlock()

	if !allowed {
		metrics.ObserveRateLimitRejection()
	}
	return allowed
}

// Len returns the number of hosts currently tracked.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// evict frees at least one slot. A full bucket behaves exactly like a new one, so
// dropping it loses no state. Caller holds l.mu.
func (l *Limiter) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, b := range l.buckets {
		if b.limiter.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, key)
			continue
		}
		if oldestKey == "" || b.lastSeen.Before(oldest) {
			oldestKey, oldest = key, b.lastSeen
		}
	}
	if len(l.buckets) >= l.maxHosts && oldestKey != "" {
		delete(l.buckets, oldestKey)
	}
}
