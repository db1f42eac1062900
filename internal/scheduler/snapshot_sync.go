package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
	redisstore "github.com/zakhap/bookmarks-with-friends/internal/store/redis"
)

const persistTimeout = 5 * time.Second

// SnapshotSyncer moves cache snapshots between memory and Redis: every good
// refresh is persisted, and on startup the last persisted snapshot seeds the
// cache so a restart behind a dead upstream still serves something.
type SnapshotSyncer struct {
	store  SnapshotStore
	cache  Seeder
	ttl    time.Duration
	logger logger.Logger
}

// NewSnapshotSyncer creates a new snapshot syncer. ttl bounds how long a
// persisted snapshot stays usable, normally freshness plus max staleness.
func NewSnapshotSyncer(
	store SnapshotStore,
	cache Seeder,
	ttl time.Duration,
	log logger.Logger,
) *SnapshotSyncer {
	return &SnapshotSyncer{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// Sync seeds the cache from Redis for each key
func (ss *SnapshotSyncer) Sync(ctx context.Context, keys []string) error {
	ss.logger.Info("syncing snapshots from redis to memory")

	for _, key := range keys {
		snap, err := ss.store.Load(ctx, key)
		if err != nil {
			if errors.Is(err, redisstore.ErrSnapshotNotFound) {
				ss.logger.Info("no snapshot found in redis", logger.String("key", key))
				continue
			}
			return err
		}

		if ss.cache.Seed(key, snap.Bookmarks, snap.FetchedAt) {
			ss.logger.Info("seeded cache from redis",
				logger.String("key", key),
				logger.Int("count", len(snap.Bookmarks)),
				logger.Time("fetched_at", snap.FetchedAt))
		}
	}

	return nil
}

// Persist saves one refreshed snapshot (best effort). Its signature matches
// the cache refresh hook.
func (ss *SnapshotSyncer) Persist(key string, bookmarks []domain.Bookmark, fetchedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := ss.store.Save(ctx, key, bookmarks, fetchedAt, ss.ttl); err != nil {
		ss.logger.Warn("failed to save snapshot to redis",
			logger.String("key", key),
			logger.Error(err))
		return
	}
	ss.logger.Debug("snapshot saved to redis", logger.String("key", key))
}
