package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

// CacheWarmer refreshes cache keys on a ticker and on manual trigger, so
// readers rarely see a cold or stale entry.
type CacheWarmer struct {
	cache         Refresher
	keys          []string
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
	manualTrigger <-chan struct{}
}

// NewCacheWarmer creates a new cache warmer
func NewCacheWarmer(
	cache Refresher,
	keys []string,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *CacheWarmer {
	return &CacheWarmer{
		cache:         cache,
		keys:          keys,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start warms once, then keeps warming in the background until Stop or ctx
// is done. An unreachable upstream at startup is not fatal: the cache
// serves empty until a later refresh succeeds.
func (cw *CacheWarmer) Start(ctx context.Context) error {
	if cw.interval <= 0 {
		return fmt.Errorf("warm interval must be > 0, got %v", cw.interval)
	}

	if err := cw.Warm(ctx); err != nil {
		cw.logger.Warn("initial cache warm failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(cw.interval)
	go func() {
		defer close(cw.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cw.Warm(ctx); err != nil {
					cw.logger.Error("failed to warm cache",
						logger.Error(err))
				}
			case <-cw.manualTrigger:
				cw.logger.Info("manual reload triggered")
				if err := cw.Warm(ctx); err != nil {
					cw.logger.Error("failed to warm cache",
						logger.Error(err))
				}
			case <-cw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the warmer and waits for an in-progress warm to finish.
// It must only be called after a successful Start.
func (cw *CacheWarmer) Stop() {
	cw.stopOnce.Do(func() { close(cw.stopCh) })
	<-cw.done
}

// Warm refreshes every key. One failing key does not stop the others.
func (cw *CacheWarmer) Warm(ctx context.Context) error {
	var errs []error
	for _, key := range cw.keys {
		start := time.Now()
		if err := cw.cache.Refresh(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("refresh %q: %w", key, err))
			continue
		}
		cw.logger.Debug("cache warmed",
			logger.String("key", key),
			logger.Duration("took", time.Since(start)))
	}
	return errors.Join(errs...)
}
