package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/logger"
	redisstore "github.com/zakhap/bookmarks-with-friends/internal/store/redis"
)

const (
	// DefaultPruneInterval is how often registered snapshots are checked
	DefaultPruneInterval = time.Hour
)

// SnapshotPruner removes snapshots for keys the app no longer serves (ex:
// after the channel was renamed) and forgets keys whose snapshot expired.
type SnapshotPruner struct {
	store    SnapshotStore
	active   map[string]bool
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSnapshotPruner creates a new snapshot pruner
func NewSnapshotPruner(
	store SnapshotStore,
	activeKeys []string,
	log logger.Logger,
	interval time.Duration,
) *SnapshotPruner {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	active := make(map[string]bool, len(activeKeys))
	for _, k := range activeKeys {
		active[k] = true
	}

	return &SnapshotPruner{
		store:    store,
		active:   active,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic pruning process
func (sp *SnapshotPruner) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := sp.Prune(ctx); err != nil {
		sp.logger.Warn("initial snapshot prune failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(sp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := sp.Prune(ctx); err != nil {
					sp.logger.Error("snapshot prune failed",
						logger.Error(err))
				}
			case <-sp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the pruner
func (sp *SnapshotPruner) Stop() {
	sp.stopOnce.Do(func() { close(sp.stopCh) })
}

// Prune deletes unserved and expired snapshot registrations and reports
// how many it removed.
func (sp *SnapshotPruner) Prune(ctx context.Context) (int, error) {
	keys, err := sp.store.Keys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		reason := ""
		if !sp.active[key] {
			reason = "key no longer served"
		} else if _, err := sp.store.Load(ctx, key); errors.Is(err, redisstore.ErrSnapshotNotFound) {
			reason = "snapshot expired"
		}
		if reason == "" {
			continue
		}

		if err := sp.store.Delete(ctx, key); err != nil {
			sp.logger.Warn("failed to delete snapshot",
				logger.String("key", key),
				logger.Error(err))
			continue
		}
		sp.logger.Info("pruned snapshot",
			logger.String("key", key),
			logger.String("reason", reason))
		removed++
	}

	return removed, nil
}
