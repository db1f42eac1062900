// Package scheduler runs the background jobs around the bookmark cache:
// periodic warming, snapshot persistence and snapshot cleanup.
package scheduler

import (
	"context"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	redisstore "github.com/zakhap/bookmarks-with-friends/internal/store/redis"
)

// Refresher is the cache side of the warmer.
type Refresher interface {
	Refresh(ctx context.Context, key string) error
}

// Seeder is the cache side of the snapshot syncer.
type Seeder interface {
	Seed(key string, bookmarks []domain.Bookmark, fetchedAt time.Time) bool
}

// SnapshotStore is the persistence side of the syncer and pruner.
type SnapshotStore interface {
	Save(ctx context.Context, key string, bookmarks []domain.Bookmark, fetchedAt time.Time, ttl time.Duration) error
	Load(ctx context.Context, key string) (redisstore.Snapshot, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
}
