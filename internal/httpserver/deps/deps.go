package deps

import (
	"context"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	"github.com/zakhap/bookmarks-with-friends/internal/feed"
	"github.com/zakhap/bookmarks-with-friends/internal/feedcache"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

// FeedCache is the read path as seen by handlers.
type FeedCache interface {
	Get(ctx context.Context, key string) []domain.Bookmark
	Status() []feedcache.EntryStatus
}

// BookmarkStore lists what was written through the API.
type BookmarkStore interface {
	Latest(ctx context.Context, limit int) ([]domain.Bookmark, error)
	Ping(ctx context.Context) error
}

// BookmarkCreator is the write path.
type BookmarkCreator interface {
	Create(ctx context.Context, in domain.CreateInput) (domain.Bookmark, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access /reload
	AllowedCIDRS []string         // IPs allowed to access ops endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Source   string          // config.SourceArena | config.SourceSQL
	CacheKey string          // key the page and feed read from the cache
	Feed     FeedCache       // revalidating cache
	Page     *feed.Page      // HTML renderer
	Channel  feed.Channel    // RSS channel metadata
	Store    BookmarkStore   // relational table
	Ingestor BookmarkCreator // authenticated write path
	Redis    Pinger          // nil when snapshot persistence is disabled

	WriteBurst        int           // token bucket size per client IP on POST /api/bookmarks
	WriteRefillPerMin int           // tokens per minute per client IP
	ReloadTrigger     chan struct{} // manual cache refresh, buffered(1)
}

// Now returns the injected clock or time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
