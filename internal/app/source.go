package app

import (
	"context"
	"fmt"

	"github.com/zakhap/bookmarks-with-friends/internal/config"
	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	"github.com/zakhap/bookmarks-with-friends/internal/feedcache"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
	"github.com/zakhap/bookmarks-with-friends/internal/sources/arena"
	"github.com/zakhap/bookmarks-with-friends/internal/version"
)

// SQLCacheKey is the cache key when the page reads the relational table.
const SQLCacheKey = "bookmarks"

// Source is the read path selected by configuration.
type Source struct {
	Name  string              // config.SourceArena | config.SourceSQL
	Key   string              // cache key, ex: the channel slug
	Fetch feedcache.FetchFunc // loads one page for Key
}

// Lister is what the sql source reads from.
type Lister interface {
	Fetch(ctx context.Context, key string) ([]domain.Bookmark, error)
}

// NewSource picks exactly one upstream for the read path.
func NewSource(cfg *config.Config, table Lister, log logger.Logger) (Source, error) {
	switch cfg.Source {
	case config.SourceArena:
		client, err := arena.NewClient(arena.ClientOptions{
			BaseURL:   cfg.ArenaBaseURL,
			Token:     cfg.ArenaToken,
			Timeout:   cfg.ArenaTimeout,
			UserAgent: "bookmarks-with-friends/" + version.Version,
		})
		if err != nil {
			return Source{}, err
		}
		fetcher := arena.NewFetcher(client, logger.Component(log, "arena"))
		return Source{
			Name:  config.SourceArena,
			Key:   arena.ChannelSlug(cfg.ArenaChannel),
			Fetch: fetcher.Fetch,
		}, nil

	case config.SourceSQL:
		if table == nil {
			return Source{}, fmt.Errorf("sql source needs a bookmark table")
		}
		return Source{
			Name:  config.SourceSQL,
			Key:   SQLCacheKey,
			Fetch: table.Fetch,
		}, nil
	}
	return Source{}, fmt.Errorf("unknown source %q", cfg.Source)
}

// invalidatingRepo expires the cached list after every insert so the next
// page view picks the new bookmark up. Used only when the page reads the
// same table the API writes to.
type invalidatingRepo struct {
	domain.BookmarkRepository
	cache *feedcache.Cache
	key   string
}

func (r invalidatingRepo) Create(ctx context.Context, nb domain.NewBookmark) (domain.Bookmark, error) {
	bm, err := r.BookmarkRepository.Create(ctx, nb)
	if err == nil {
		r.cache.Invalidate(r.key)
	}
	return bm, err
}

// writeRepo wires the ingestion repository for the selected source.
func writeRepo(src Source, repo domain.BookmarkRepository, cache *feedcache.Cache) domain.BookmarkRepository {
	if src.Name != config.SourceSQL {
		return repo
	}
	return invalidatingRepo{BookmarkRepository: repo, cache: cache, key: src.Key}
}
