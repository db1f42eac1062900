package arena

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
)

const (
	untitledImage = "Untitled Image"
	textBlock     = "Text Block"
)

// SkipError explains why a block did not become a bookmark.
type SkipError struct {
	BlockID string
	Class   string
	Reason  string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipping block %s (%s): %s", e.BlockID, e.Class, e.Reason)
}

func skip(b BlockBase, reason string) *SkipError {
	return &SkipError{BlockID: b.ID, Class: b.Class, Reason: reason}
}

// Normalize maps one block to a bookmark or returns a *SkipError.
// It does no I/O and keeps no state.
func Normalize(b Block) (domain.Bookmark, error) {
	base := b.Base()

	savedAt, err := time.Parse(time.RFC3339, base.CreatedAt)
	if err != nil {
		return domain.Bookmark{}, skip(base, fmt.Sprintf("unparsable created_at %q", base.CreatedAt))
	}

	bm := domain.Bookmark{
		ID:      base.ID,
		SavedBy: firstNonEmpty(base.User.Username, base.User.FullName),
		SavedAt: savedAt,
	}

	switch v := b.(type) {
	case LinkBlock:
		if v.Source == nil {
			return domain.Bookmark{}, skip(base, "unmappable, no source URL")
		}
		bm.Kind = domain.KindLink
		bm.URL = v.Source.URL
		bm.Title = firstNonEmpty(base.Title, v.Source.URL)
		bm.Note = firstNonEmpty(base.Description, base.Content)

	case ImageBlock:
		if v.Image == nil || v.Image.OriginalURL == "" || v.Image.DisplayURL == "" {
			return domain.Bookmark{}, skip(base, "unmappable, missing image URLs")
		}
		bm.Kind = domain.KindImage
		bm.URL = v.Image.OriginalURL
		bm.ImageURL = v.Image.DisplayURL
		bm.Title = firstNonEmpty(base.Title, untitledImage)
		bm.Note = firstNonEmpty(base.Description, base.Content)

	case TextBlock:
		bm.Kind = domain.KindText
		bm.Title = firstNonEmpty(base.Title, textBlock)
		bm.Note = firstNonEmpty(base.Content, base.Description)

	case MediaBlock:
		fillOther(&bm, base, v.Source)
	case AttachmentBlock:
		fillOther(&bm, base, v.Source)
	case ChannelBlock:
		fillOther(&bm, base, v.Source)
	case UnknownBlock:
		fillOther(&bm, base, v.Source)

	default:
		return domain.Bookmark{}, skip(base, fmt.Sprintf("unsupported block type %T", b))
	}

	return bm, nil
}

func fillOther(bm *domain.Bookmark, base BlockBase, src *Source) {
	bm.Kind = domain.KindOther
	if src != nil {
		bm.URL = src.URL
	}
	class := base.Class
	if class == "" {
		class = "Unknown"
	}
	bm.Title = firstNonEmpty(base.Title, class+" Block")
	bm.Note = firstNonEmpty(base.Description, base.Content)
}

// NormalizeAll decodes and normalizes a batch in order. Every element is
// handled on its own: a bad element becomes an entry in skipped and the
// rest of the batch carries on. Later duplicates of an id are skipped too.
func NormalizeAll(raws []json.RawMessage) (bookmarks []domain.Bookmark, skipped []error) {
	bookmarks = make([]domain.Bookmark, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for i, raw := range raws {
		block, err := DecodeBlock(raw)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("block #%d: %w", i, err))
			continue
		}

		bm, err := Normalize(block)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}

		if seen[bm.ID] {
			skipped = append(skipped, skip(block.Base(), "duplicate id"))
			continue
		}
		seen[bm.ID] = true

		bookmarks = append(bookmarks, bm)
	}

	return bookmarks, skipped
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
