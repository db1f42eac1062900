package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
)

// Snapshot is the persisted form of one cache entry.
type Snapshot struct {
	Key       string            `json:"key"`
	Bookmarks []domain.Bookmark `json:"bookmarks"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// ErrSnapshotNotFound is returned by Load when nothing is stored for a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists cache snapshots in Redis
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Save stores the snapshot for cacheKey, expiring after ttl
func (s *Store) Save(ctx context.Context, cacheKey string, bookmarks []domain.Bookmark, fetchedAt time.Time, ttl time.Duration) error {
	data, err := encodeSnapshot(cacheKey, bookmarks, fetchedAt)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, SnapshotKey(cacheKey), data, ttl)
	pipe.SAdd(ctx, AllSnapshotsKey(), cacheKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// Load retrieves the snapshot for cacheKey
func (s *Store) Load(ctx context.Context, cacheKey string) (Snapshot, error) {
	data, err := s.client.Get(ctx, SnapshotKey(cacheKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, cacheKey)
		}
		return Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return decodeSnapshot(data)
}

// Keys lists the cache keys that have a snapshot registered
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, AllSnapshotsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot keys: %w", err)
	}
	return keys, nil
}

// Delete removes the snapshot for cacheKey
func (s *Store) Delete(ctx context.Context, cacheKey string) error {
	if err := s.client.Del(ctx, SnapshotKey(cacheKey)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	if err := s.client.SRem(ctx, AllSnapshotsKey(), cacheKey).Err(); err != nil {
		return fmt.Errorf("failed to remove snapshot from set: %w", err)
	}

	return nil
}

// Flush removes all snapshots and returns the cache keys they belonged to
func (s *Store) Flush(ctx context.Context) ([]string, error) {
	var removed []string

	iter := s.client.Scan(ctx, 0, KeyPrefixSnapshot+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("failed to delete snapshot key: %w", err)
		}
		if cacheKey, err := ExtractCacheKey(iter.Val()); err == nil {
			removed = append(removed, cacheKey)
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to flush snapshots: %w", err)
	}

	if err := s.client.Del(ctx, AllSnapshotsKey()).Err(); err != nil {
		return removed, fmt.Errorf("failed to delete snapshot set: %w", err)
	}
	return removed, nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func encodeSnapshot(cacheKey string, bookmarks []domain.Bookmark, fetchedAt time.Time) ([]byte, error) {
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	data, err := json.Marshal(Snapshot{Key: cacheKey, Bookmarks: bookmarks, FetchedAt: fetchedAt.UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.FetchedAt.IsZero() {
		return Snapshot{}, fmt.Errorf("snapshot %q has no fetch time", snap.Key)
	}
	if snap.Bookmarks == nil {
		snap.Bookmarks = []domain.Bookmark{}
	}
	return snap, nil
}
