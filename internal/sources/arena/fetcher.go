package arena

import (
	"context"
	"encoding/json"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

// ContentsSource is the part of Client the fetcher needs.
type ContentsSource interface {
	ChannelContents(ctx context.Context, channel string, opts ContentsOptions) ([]json.RawMessage, error)
}

// Fetcher turns one page of a channel into ordered bookmarks.
type Fetcher struct {
	source ContentsSource
	logger logger.Logger
	per    int
}

// NewFetcher creates a fetcher reading pages of domain.DefaultPageSize blocks.
func NewFetcher(source ContentsSource, log logger.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		logger: log,
		per:    domain.DefaultPageSize,
	}
}

// Fetch returns the newest page of the channel, sorted by position descending,
// or a *FetchError. It never returns a partial list alongside an error.
func (f *Fetcher) Fetch(ctx context.Context, channel string) ([]domain.Bookmark, error) {
	raws, err := f.source.ChannelContents(ctx, channel, ContentsOptions{
		Per:       f.per,
		Sort:      "position",
		Direction: "desc",
	})
	if err != nil {
		return nil, err
	}

	bookmarks, skipped := NormalizeAll(raws)
	for _, s := range skipped {
		f.logger.Debug("block skipped",
			logger.String("channel", channel),
			logger.Error(s))
	}

	f.logger.Debug("channel fetched",
		logger.String("channel", channel),
		logger.Int("blocks", len(raws)),
		logger.Int("bookmarks", len(bookmarks)),
		logger.Int("skipped", len(skipped)))

	return bookmarks, nil
}
