// # internal/engine/fetch/cache.go
package fetch

import (
	"log/slog"
	"sync"
	"time"

	"inlinelog/internal/shared/observability"
)

const (
	DefaultCacheCapacity = 100
	DefaultCacheTTL      = 5 * time.Minute
)

// Cache holds successful responses keyed by URL. Eviction is strict FIFO by
// insertion order; entries older than the TTL are treated as absent.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	order    []string
	entries  map[string]Response
	store    *Store
}

func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]Response),
	}
}

// SetClock replaces the time source used for TTL checks.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// AttachStore enables write-through persistence, drops expired rows and
// warms the cache with the newest unexpired stored entries.
func (c *Cache) AttachStore(s *Store) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = s
	cutoff := c.now().Add(-c.ttl)
	if err := s.Prune(cutoff); err != nil {
		slog.Warn("prune expired fetch cache entries failed", "path", s.Path(), "error", err)
	}
	entries, err := s.Load(cutoff, c.capacity)
	if err != nil {
		return err
	}
	for _, e := range entries {
		c.insertLocked(e)
	}
	observability.FetchCacheEntries.Set(float64(len(c.entries)))
	return nil
}

// Get returns a fresh entry for url. An expired entry is removed.
func (c *Cache) Get(url string) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[url]
	if !ok {
		return Response{}, false
	}
	if c.now().Sub(e.FetchedAt) > c.ttl {
		c.removeLocked(url)
		observability.FetchCacheEntries.Set(float64(len(c.entries)))
		return Response{}, false
	}
	return e, true
}

// Put inserts resp, evicting the oldest-inserted entry when full. Re-inserting
// a URL moves it to the back of the queue.
func (c *Cache) Put(resp Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if resp.FetchedAt.IsZero() {
		resp.FetchedAt = c.now()
	}
	evicted := c.insertLocked(resp)
	observability.FetchCacheEntries.Set(float64(len(c.entries)))

	if c.store == nil {
		return
	}
	if err := c.store.Save(resp); err != nil {
		slog.Warn("persist fetch cache entry failed", "url", resp.URL, "error", err)
	}
	for _, url := range evicted {
		if err := c.store.Delete(url); err != nil {
			slog.Warn("delete evicted fetch cache entry failed", "url", url, "error", err)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) insertLocked(resp Response) []string {
	if _, exists := c.entries[resp.URL]; exists {
		c.removeLocked(resp.URL)
	}
	var evicted []string
	for len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		evicted = append(evicted, oldest)
	}
	c.order = append(c.order, resp.URL)
	c.entries[resp.URL] = resp
	return evicted
}

func (c *Cache) removeLocked(url string) {
	delete(c.entries, url)
	for i, u := range c.order {
		if u == url {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
