package fetch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedCache(capacity int, ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(capacity, ttl)
	c.SetClock(clock.Now)
	return c, clock
}

func TestCache_FIFOEviction(t *testing.T) {
	c, _ := newClockedCache(2, time.Minute)
	c.Put(Response{URL: "a", Body: []byte("A")})
	c.Put(Response{URL: "b", Body: []byte("B")})

	// reading does not refresh position
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put(Response{URL: "c", Body: []byte("C")})
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("a")
	assert.False(t, ok, "oldest inserted entry is evicted even if recently read")
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_ReinsertMovesToBack(t *testing.T) {
	c, _ := newClockedCache(2, time.Minute)
	c.Put(Response{URL: "a"})
	c.Put(Response{URL: "b"})
	c.Put(Response{URL: "a", Body: []byte("new")})
	c.Put(Response{URL: "c"})

	_, ok := c.Get("b")
	assert.False(t, ok)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", string(got.Body))
}

func TestCache_TTL(t *testing.T) {
	c, clock := newClockedCache(10, time.Minute)
	c.Put(Response{URL: "a"})

	clock.Advance(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Defaults(t *testing.T) {
	c := NewCache(0, 0)
	assert.Equal(t, DefaultCacheCapacity, c.capacity)
	assert.Equal(t, DefaultCacheTTL, c.ttl)
}

func TestCache_PersistsThroughStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "fetch.db")

	store, err := OpenStore(path)
	require.NoError(t, err)
	first, clock := newClockedCache(2, time.Hour)
	require.NoError(t, first.AttachStore(store))

	first.Put(Response{URL: "https://a", Status: 200, ContentType: "text/plain", Body: []byte("A")})
	clock.Advance(time.Second)
	first.Put(Response{URL: "https://b", Status: 200, Body: []byte("B")})
	clock.Advance(time.Second)
	first.Put(Response{URL: "https://c", Status: 200, Body: []byte("C")})
	require.NoError(t, store.Close())

	store, err = OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	second := NewCache(2, time.Hour)
	second.SetClock(clock.Now)
	require.NoError(t, second.AttachStore(store))
	assert.Equal(t, 2, second.Len())

	_, ok := second.Get("https://a")
	assert.False(t, ok, "evicted entry is removed from the store")
	got, ok := second.Get("https://b")
	require.True(t, ok)
	assert.Equal(t, "B", string(got.Body))
	assert.Equal(t, 200, got.Status)
}

func TestStore_LoadSkipsExpired(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "fetch.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(Response{URL: "old", Status: 200, Body: []byte("x"), FetchedAt: base}))
	require.NoError(t, store.Save(Response{URL: "new", Status: 200, Body: []byte("y"), FetchedAt: base.Add(time.Hour)}))

	entries, err := store.Load(base.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].URL)
	assert.True(t, entries[0].FetchedAt.Equal(base.Add(time.Hour)))
}

func TestOpenStore_RejectsDirectory(t *testing.T) {
	_, err := OpenStore(t.TempDir())
	require.Error(t, err)
	_, err = OpenStore("  ")
	require.Error(t, err)
}

func TestStore_Prune(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "fetch.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(Response{URL: "old", Status: 200, Body: []byte("x"), FetchedAt: base}))
	require.NoError(t, store.Save(Response{URL: "new", Status: 200, Body: []byte("y"), FetchedAt: base.Add(time.Hour)}))
	require.NoError(t, store.Prune(base))

	entries, err := store.Load(time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].URL)
}

func TestOpenStore_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fetch.db")
	for i := 0; i < 2; i++ {
		store, err := OpenStore(path)
		require.NoError(t, err)
		require.NoError(t, store.Ping(context.Background()))
		require.NoError(t, store.Close())
	}
}
