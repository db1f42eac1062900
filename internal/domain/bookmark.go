package domain

import "time"

// Kind classifies a bookmark by the shape of the content it points at.
// It decides which of URL and ImageURL are meaningful.
type Kind string

const (
	KindLink  Kind = "link"
	KindImage Kind = "image"
	KindText  Kind = "text"
	KindOther Kind = "other"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindLink, KindImage, KindText, KindOther:
		return true
	}
	return false
}

// DefaultPageSize caps every list the read and write paths hand out.
const DefaultPageSize = 50

// Bookmark is the canonical record for one saved item.
//
// It is NOT tied to are.na, SQLite or any other source.
// Every source is normalized into this shape before it reaches the cache.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is stable per upstream block and unique within one snapshot.
	ID string `json:"id"`

	// Kind is one of link, image, text, other.
	Kind Kind `json:"type"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL is the source reference. Empty for text.
	URL string `json:"url,omitempty"`

	// ImageURL is the display-resolution asset. Set only for images;
	// URL then holds the original asset.
	ImageURL string `json:"imageUrl,omitempty"`

	// Title is always present once normalized.
	Title string `json:"title"`

	// Note is optional free text.
	Note string `json:"note,omitempty"`

	// ─────────────────────────────
	// Provenance
	// ─────────────────────────────

	// SavedBy is the contributor handle.
	SavedBy string `json:"savedBy"`

	// SavedAt is the creation time reported by the source.
	SavedAt time.Time `json:"savedAt"`
}

// NewBookmark is the write-side shape: what a contributor submits.
// The server assigns ID and SavedAt.
type NewBookmark struct {
	URL     string
	Title   string
	Note    string
	SavedBy string
}
