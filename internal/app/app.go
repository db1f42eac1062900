package app

import (
	"context"
	"fmt"
	"io"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/zakhap/bookmarks-with-friends/internal/config"
	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	"github.com/zakhap/bookmarks-with-friends/internal/feed"
	"github.com/zakhap/bookmarks-with-friends/internal/feedcache"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/deps"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
	"github.com/zakhap/bookmarks-with-friends/internal/redis"
	"github.com/zakhap/bookmarks-with-friends/internal/scheduler"
	"github.com/zakhap/bookmarks-with-friends/internal/store/sqlite"
	redisstore "github.com/zakhap/bookmarks-with-friends/internal/store/redis"
	"github.com/zakhap/bookmarks-with-friends/internal/utils"
	"github.com/zakhap/bookmarks-with-friends/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	store       *sqlite.Store
	cache       *feedcache.Cache
	source      Source
	redisClient *goredis.Client
	syncer      *scheduler.SnapshotSyncer
	warmer      *scheduler.CacheWarmer
	pruner      *scheduler.SnapshotPruner
}

// New wires every component. Nothing runs until Run. On error, whatever was
// already opened is closed again.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	var opened []io.Closer
	fail := func(err error) (*App, error) {
		for i := len(opened) - 1; i >= 0; i-- {
			utils.MustClose(opened[i], "startup resource", loggerClient)
		}
		return nil, err
	}

	store, err := sqlite.Open(ctx, cfg.DatabasePath, logger.Component(loggerClient, "sqlite"))
	if err != nil {
		return nil, fmt.Errorf("failed to open bookmark table: %w", err)
	}
	opened = append(opened, store)
	loggerClient.Info("bookmark table ready", logger.String("path", cfg.DatabasePath))

	src, err := NewSource(cfg, store, loggerClient)
	if err != nil {
		return fail(err)
	}

	page, err := feed.NewPage(feed.PageOptions{
		Title:       cfg.SiteTitle,
		Description: "Links, images and notes saved by a group of friends",
		Masthead:    cfg.SiteMasthead,
		Tagline:     "bookmarks with friends",
		Location:    cfg.Location(),
	})
	if err != nil {
		return fail(err)
	}

	// Redis is optional: without it a restart simply starts cold.
	var (
		redisClient *goredis.Client
		snapshots   *redisstore.Store
		syncer      *scheduler.SnapshotSyncer
	)
	if cfg.RedisEnabled() {
		redisClient, err = redis.New(ctx, RedisOptions(cfg), loggerClient)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		opened = append(opened, redisClient)
		snapshots = redisstore.NewStore(redisClient)
		loggerClient.Info("Redis initialized successfully")
	} else {
		loggerClient.Info("redis not configured, snapshots will not survive restarts")
	}

	cacheOpts := feedcache.Options{
		Freshness: cfg.CacheFreshness,
		MaxStale:  cfg.CacheMaxStale,
		Logger:    logger.Component(loggerClient, "cache"),
	}
	if snapshots != nil {
		cacheOpts.OnRefresh = func(key string, snap feedcache.Snapshot) {
			syncer.Persist(key, snap.Bookmarks, snap.FetchedAt)
		}
	}
	cache := feedcache.New(src.Fetch, cacheOpts)

	if snapshots != nil {
		syncer = scheduler.NewSnapshotSyncer(snapshots, cache, cfg.CacheFreshness+cfg.CacheMaxStale, loggerClient)
	}

	reloadTrigger := make(chan struct{}, 1)
	warmer := scheduler.NewCacheWarmer(cache, []string{src.Key}, loggerClient, cfg.WarmInterval, reloadTrigger)

	var pruner *scheduler.SnapshotPruner
	if snapshots != nil {
		pruner = scheduler.NewSnapshotPruner(snapshots, []string{src.Key}, loggerClient, cfg.PruneInterval)
	}

	ingestor := domain.NewIngestor(writeRepo(src, store, cache), cfg.APIKey,
		logger.Component(loggerClient, "ingest"))

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Source:       src.Name,
		CacheKey:     src.Key,
		Feed:         cache,
		Page:         page,
		Channel: feed.Channel{
			Title:       cfg.SiteTitle,
			Link:        cfg.PublicBaseURL,
			Description: "Bookmarks shared by friends",
			SelfURL:     cfg.PublicBaseURL + "/api/feed.xml",
		},
		Store:             store,
		Ingestor:          ingestor,
		WriteBurst:        cfg.WriteBurst,
		WriteRefillPerMin: cfg.WriteRefillPerMin,
		ReloadTrigger:     reloadTrigger,
	}
	if snapshots != nil {
		d.Redis = snapshots
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		store:       store,
		cache:       cache,
		source:      src,
		redisClient: redisClient,
		syncer:      syncer,
		warmer:      warmer,
		pruner:      pruner,
	}, nil
}

// RedisOptions maps the environment settings onto the connector.
func RedisOptions(cfg *config.Config) redis.ConnectOptions {
	return redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
}

// Run serves until ctx is done, then shuts everything down in reverse order.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting bookmarks v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("bookmarks %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)
	a.logger.Info("read path selected",
		logger.String("source", a.source.Name),
		logger.String("key", a.source.Key))

	// Seed from the last persisted snapshot before the first warm so a dead
	// upstream still has something to serve.
	if a.syncer != nil {
		if err := a.syncer.Sync(ctx, []string{a.source.Key}); err != nil {
			a.logger.Warn("failed to sync snapshots from redis on startup, starting cold",
				logger.Error(err))
		}
	}

	if err := a.warmer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cache warmer: %w", err)
	}
	a.logger.Info("cache warmer started",
		logger.Duration("interval", a.cfg.WarmInterval))

	if a.pruner != nil {
		if err := a.pruner.Start(ctx); err != nil {
			return fmt.Errorf("failed to start snapshot pruner: %w", err)
		}
		a.logger.Info("snapshot pruner started",
			logger.Duration("interval", a.cfg.PruneInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.warmer.Stop()
	if a.pruner != nil {
		a.pruner.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// In-flight background refreshes may still persist a snapshot.
	a.cache.Wait()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close bookmark table: %v", err)
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ bookmarks stopped cleanly")
	return nil
}
