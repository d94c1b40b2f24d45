package util

import (
	"sync"
	"time"
)

// LimiterRegistry hands out one Limiter per key, typically a remote host.
// Limiters idle for longer than the idle period are swept lazily on Get.
type LimiterRegistry struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perSecond float64
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *Limiter
	lastUsed time.Time
}

func NewLimiterRegistry(perSecond float64, burst int, idle time.Duration) *LimiterRegistry {
	return &LimiterRegistry{
		limiters:  make(map[string]*limiterEntry),
		perSecond: perSecond,
		burst:     burst,
		idle:      idle,
		now:       time.Now,
	}
}

// Get returns the limiter for key, creating it on first use.
func (r *LimiterRegistry) Get(key string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.idle > 0 && now.Sub(r.lastSweep) >= r.idle {
		r.sweepLocked(now)
	}

	entry, ok := r.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: NewLimiter(r.perSecond, r.burst)}
		r.limiters[key] = entry
	}
	entry.lastUsed = now
	return entry.limiter
}

// Len returns the number of live limiters.
func (r *LimiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

func (r *LimiterRegistry) sweepLocked(now time.Time) {
	r.lastSweep = now
	for key, entry := range r.limiters {
		if now.Sub(entry.lastUsed) > r.idle {
			delete(r.limiters, key)
		}
	}
}
