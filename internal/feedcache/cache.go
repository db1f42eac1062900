// Package feedcache serves bookmark lists with stale-while-revalidate semantics.
//
// Each key holds one immutable snapshot behind an atomic pointer. Readers load
// the pointer and never wait on a refresh; the refresh for a key is the only
// writer and swaps the whole snapshot at once. Refreshes for the same key are
// coalesced through singleflight, so at most one upstream call per key is in
// flight at any time.
package feedcache

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

const (
	// DefaultFreshness is how long a snapshot is served without contacting upstream.
	DefaultFreshness = 300 * time.Second
	// DefaultMaxStale is how long past freshness a snapshot may still be served
	// while upstream keeps failing.
	DefaultMaxStale = 24 * time.Hour
)

// FetchFunc loads the current list for key. It must return either a complete
// list or an error.
type FetchFunc func(ctx context.Context, key string) ([]domain.Bookmark, error)

// Options tunes a Cache. Zero values pick the defaults.
type Options struct {
	Freshness time.Duration
	MaxStale  time.Duration
	Now       func() time.Time // for testing, defaults to time.Now
	Logger    logger.Logger

	// OnRefresh is called after every successful fetch, in its own goroutine
	// tracked by Wait. Readers never wait on it.
	OnRefresh func(key string, snap Snapshot)
}

// Snapshot is one successfully fetched list.
type Snapshot struct {
	Bookmarks []domain.Bookmark
	FetchedAt time.Time

	gen uint64
}

type failure struct {
	msg string
	at  time.Time
}

type entry struct {
	snap       atomic.Pointer[Snapshot]
	refreshing atomic.Bool // background revalidation scheduled
	fetching   atomic.Bool // an upstream call is in flight, from any path
	gen        atomic.Uint64 // bumped by Invalidate
	lastErr    atomic.Pointer[failure]
}

// Cache is safe for concurrent use. Different keys are fully independent.
type Cache struct {
	fetch     FetchFunc
	freshness time.Duration
	maxStale  time.Duration
	now       func() time.Time
	logger    logger.Logger
	onRefresh func(string, Snapshot)

	entries sync.Map // key -> *entry
	group   singleflight.Group
	bg      sync.WaitGroup
}

// New wraps fetch with a revalidating cache.
func New(fetch FetchFunc, opts Options) *Cache {
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.MaxStale <= 0 {
		opts.MaxStale = DefaultMaxStale
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &Cache{
		fetch:     fetch,
		freshness: opts.Freshness,
		maxStale:  opts.MaxStale,
		now:       opts.Now,
		logger:    opts.Logger,
		onRefresh: opts.OnRefresh,
	}
}

func (c *Cache) entry(key string) *entry {
	if e, ok := c.entries.Load(key); ok {
		return e.(*entry)
	}
	e, _ := c.entries.LoadOrStore(key, &entry{})
	return e.(*entry)
}

// Get returns the list for key and never fails: a cold cache with an
// unreachable upstream yields an empty list. The returned slice is shared
// between readers and must not be modified.
func (c *Cache) Get(ctx context.Context, key string) []domain.Bookmark {
	e := c.entry(key)

	s := e.snap.Load()
	if s == nil {
		return c.load(ctx, key, e)
	}

	age := c.now().Sub(s.FetchedAt)
	if age > c.freshness+c.maxStale {
		c.logger.Warn("cached bookmarks too old to serve, fetching synchronously",
			logger.String("key", key),
			logger.Duration("age", age))
		return c.load(ctx, key, e)
	}

	if age <= c.freshness && s.gen == e.gen.Load() {
		return s.Bookmarks
	}

	c.revalidate(key, e)
	return s.Bookmarks
}

// load fetches in the caller's goroutine; concurrent callers share the call.
func (c *Cache) load(ctx context.Context, key string, e *entry) []domain.Bookmark {
	s, err := c.do(ctx, key, e)
	if err != nil {
		c.logger.Warn("bookmark fetch failed with nothing servable cached, returning empty list",
			logger.String("key", key),
			logger.Error(err))
		return []domain.Bookmark{}
	}
	return s.Bookmarks
}

// revalidate starts one background refresh unless one is already running.
func (c *Cache) revalidate(key string, e *entry) {
	if !e.refreshing.CompareAndSwap(false, true) {
		return
	}

	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		defer e.refreshing.Store(false)

		if _, err := c.do(context.Background(), key, e); err != nil {
			c.logger.Warn("background refresh failed, keeping stale bookmarks",
				logger.String("key", key),
				logger.Error(err))
		}
	}()
}

// Refresh fetches key now, in the caller's goroutine. On failure the current
// snapshot is kept.
func (c *Cache) Refresh(ctx context.Context, key string) error {
	_, err := c.do(ctx, key, c.entry(key))
	return err
}

func (c *Cache) do(ctx context.Context, key string, e *entry) (*Snapshot, error) {
	// Detached so one caller going away does not fail everyone sharing the call.
	ctx = context.WithoutCancel(ctx)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		e.fetching.Store(true)
		defer e.fetching.Store(false)

		gen := e.gen.Load()

		bookmarks, err := c.fetch(ctx, key)
		if err != nil {
			e.lastErr.Store(&failure{msg: err.Error(), at: c.now()})
			return nil, err
		}
		if bookmarks == nil {
			bookmarks = []domain.Bookmark{}
		}

		s := &Snapshot{Bookmarks: bookmarks, FetchedAt: c.now(), gen: gen}
		e.snap.Store(s)
		e.lastErr.Store(nil)

		c.logger.Debug("bookmarks refreshed",
			logger.String("key", key),
			logger.Int("count", len(bookmarks)))

		c.notify(key, e, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// notify hands s to the refresh hook off the request path. A snapshot already
// replaced by a newer fetch is not reported.
func (c *Cache) notify(key string, e *entry, s *Snapshot) {
	if c.onRefresh == nil {
		return
	}
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		if e.snap.Load() != s {
			return
		}
		c.onRefresh(key, *s)
	}()
}

// Invalidate marks the snapshot for key as expired. The next Get still
// serves it and triggers a refresh.
func (c *Cache) Invalidate(key string) {
	if e, ok := c.entries.Load(key); ok {
		e.(*entry).gen.Add(1)
		c.logger.Debug("cache invalidated", logger.String("key", key))
	}
}

// Seed installs a snapshot for key if none is cached yet, e.g. one restored
// from persistent storage at startup. It reports whether the seed was used.
func (c *Cache) Seed(key string, bookmarks []domain.Bookmark, fetchedAt time.Time) bool {
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	e := c.entry(key)
	return e.snap.CompareAndSwap(nil, &Snapshot{Bookmarks: bookmarks, FetchedAt: fetchedAt, gen: e.gen.Load()})
}

// Wait blocks until background refreshes and refresh hooks started so far
// have finished.
func (c *Cache) Wait() {
	c.bg.Wait()
}

// EntryStatus describes one key for diagnostics.
type EntryStatus struct {
	Key         string    `json:"key"`
	Cached      bool      `json:"cached"`
	Bookmarks   int       `json:"bookmarks"`
	FetchedAt   time.Time `json:"fetched_at,omitempty"`
	AgeSeconds  float64   `json:"age_seconds"`
	Fresh       bool      `json:"fresh"`
	Refreshing  bool      `json:"refreshing"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at,omitempty"`
}

// Status reports every known key, sorted by key.
func (c *Cache) Status() []EntryStatus {
	now := c.now()
	var out []EntryStatus

	c.entries.Range(func(k, v interface{}) bool {
		e := v.(*entry)
		st := EntryStatus{
			Key:        k.(string),
			Refreshing: e.refreshing.Load() || e.fetching.Load(),
		}
		if s := e.snap.Load(); s != nil {
			age := now.Sub(s.FetchedAt)
			st.Cached = true
			st.Bookmarks = len(s.Bookmarks)
			st.FetchedAt = s.FetchedAt
			st.AgeSeconds = age.Seconds()
			st.Fresh = age <= c.freshness && s.gen == e.gen.Load()
		}
		if f := e.lastErr.Load(); f != nil {
			st.LastError = f.msg
			st.LastErrorAt = f.at
		}
		out = append(out, st)
		return true
	})

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
