package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	"github.com/zakhap/bookmarks-with-friends/internal/feedcache"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
	redisstore "github.com/zakhap/bookmarks-with-friends/internal/store/redis"
)

type memSnapshots struct {
	mu    sync.Mutex
	data  map[string]redisstore.Snapshot
	keys  map[string]bool
	ttls  map[string]time.Duration
	fail  error
	saves int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{
		data: map[string]redisstore.Snapshot{},
		keys: map[string]bool{},
		ttls: map[string]time.Duration{},
	}
}

func (m *memSnapshots) Save(_ context.Context, key string, bookmarks []domain.Bookmark, fetchedAt time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = redisstore.Snapshot{Key: key, Bookmarks: bookmarks, FetchedAt: fetchedAt}
	m.keys[key] = true
	m.ttls[key] = ttl
	m.saves++
	return nil
}

func (m *memSnapshots) Load(_ context.Context, key string) (redisstore.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return redisstore.Snapshot{}, m.fail
	}
	s, ok := m.data[key]
	if !ok {
		return redisstore.Snapshot{}, fmt.Errorf("%w: %s", redisstore.ErrSnapshotNotFound, key)
	}
	return s, nil
}

func (m *memSnapshots) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []string
	for k := range m.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memSnapshots) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.keys, key)
	return nil
}

type countingRefresher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func (r *countingRefresher) Refresh(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[key]++
	return r.fail[key]
}

func (r *countingRefresher) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[key]
}

func TestCacheWarmerWarm(t *testing.T) {
	r := &countingRefresher{fail: map[string]error{"bad": errors.New("down")}}
	w := NewCacheWarmer(r, []string{"bad", "good"}, logger.Nop(), time.Minute, nil)

	err := w.Warm(context.Background())
	if err == nil {
		t.Fatal("Warm() should report the failing key")
	}
	if r.count("good") != 1 {
		t.Error("a failing key must not stop the others from warming")
	}
}

func TestCacheWarmerStartAndManualTrigger(t *testing.T) {
	r := &countingRefresher{}
	trigger := make(chan struct{}, 1)
	w := NewCacheWarmer(r, []string{"k"}, logger.Nop(), time.Hour, trigger)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if r.count("k") != 1 {
		t.Fatalf("Start() should warm immediately, got %d refreshes", r.count("k"))
	}

	trigger <- struct{}{}
	deadline := time.Now().Add(2 * time.Second)
	for r.count("k") < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop() // idempotent

	if r.count("k") != 2 {
		t.Errorf("manual trigger: got %d refreshes, want 2", r.count("k"))
	}
}

func TestCacheWarmerStartSurvivesFailure(t *testing.T) {
	r := &countingRefresher{fail: map[string]error{"k": errors.New("down")}}
	w := NewCacheWarmer(r, []string{"k"}, logger.Nop(), time.Hour, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() should not fail on an unreachable upstream: %v", err)
	}
	w.Stop()
}

func TestCacheWarmerRejectsZeroInterval(t *testing.T) {
	w := NewCacheWarmer(&countingRefresher{}, []string{"k"}, logger.Nop(), 0, nil)
	if err := w.Start(context.Background()); err == nil {
		t.Error("Start() with zero interval should fail")
	}
}

func TestSnapshotSyncerRoundTrip(t *testing.T) {
	store := newMemSnapshots()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	bookmarks := []domain.Bookmark{{ID: "1", Kind: domain.KindText, Title: "T", SavedBy: "a", SavedAt: at}}

	writer := NewSnapshotSyncer(store, nil, 25*time.Hour, logger.Nop())
	writer.Persist("friends", bookmarks, at)
	if store.ttls["friends"] != 25*time.Hour {
		t.Errorf("ttl = %v", store.ttls["friends"])
	}

	calls := 0
	cache := feedcache.New(func(context.Context, string) ([]domain.Bookmark, error) {
		calls++
		return nil, errors.New("upstream down")
	}, feedcache.Options{Now: func() time.Time { return at.Add(time.Hour) }})

	reader := NewSnapshotSyncer(store, cache, 25*time.Hour, logger.Nop())
	if err := reader.Sync(context.Background(), []string{"friends", "missing"}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	// An hour old is stale: served while a background refresh fails.
	got := cache.Get(context.Background(), "friends")
	cache.Wait()
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("Get() after seed = %+v", got)
	}
	if calls != 1 {
		t.Errorf("expected one background refresh attempt, got %d", calls)
	}
}

func TestSnapshotSyncerPropagatesStoreErrors(t *testing.T) {
	store := newMemSnapshots()
	store.fail = errors.New("connection refused")

	s := NewSnapshotSyncer(store, nil, time.Hour, logger.Nop())
	if err := s.Sync(context.Background(), []string{"k"}); err == nil {
		t.Error("Sync() should fail when redis errors")
	}
	s.Persist("k", nil, time.Now()) // logged, not fatal
}

func TestSnapshotPrunerPrune(t *testing.T) {
	store := newMemSnapshots()
	ctx := context.Background()
	now := time.Now()
	_ = store.Save(ctx, "friends", nil, now, time.Hour)
	_ = store.Save(ctx, "old-channel", nil, now, time.Hour)

	// Registered but its data expired.
	store.keys["expired"] = true

	p := NewSnapshotPruner(store, []string{"friends", "expired"}, logger.Nop(), 0)
	removed, err := p.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	keys, _ := store.Keys(ctx)
	if len(keys) != 1 || keys[0] != "friends" {
		t.Errorf("remaining keys = %v", keys)
	}
}

func TestSnapshotPrunerStartStop(t *testing.T) {
	store := newMemSnapshots()
	store.fail = errors.New("down")

	p := NewSnapshotPruner(store, nil, logger.Nop(), time.Hour)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	p.Stop()
	p.Stop()
}
