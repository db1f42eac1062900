package arena

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
)

var (
	t1 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 = time.Date(2025, 3, 2, 11, 30, 0, 0, time.UTC)
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.Bookmark
	}{
		{
			name: "link with title and description",
			raw: `{"id":2,"class":"Link","title":"X","source":{"url":"http://x"},
				"description":"desc","content":"body","user":{"username":"b","full_name":"Bee"},
				"created_at":"2025-03-02T11:30:00.000Z"}`,
			want: domain.Bookmark{ID: "2", Kind: domain.KindLink, URL: "http://x", Title: "X", Note: "desc", SavedBy: "b", SavedAt: t2},
		},
		{
			name: "link title falls back to url and note to content",
			raw: `{"id":3,"class":"Link","title":"","source":{"url":"https://example.com"},
				"content":"fallback","user":{"username":"","full_name":"Full Name"},
				"created_at":"2025-03-01T10:00:00Z"}`,
			want: domain.Bookmark{ID: "3", Kind: domain.KindLink, URL: "https://example.com", Title: "https://example.com", Note: "fallback", SavedBy: "Full Name", SavedAt: t1},
		},
		{
			name: "image uses original and display urls",
			raw: `{"id":4,"class":"Image","title":null,
				"image":{"original":{"url":"https://cdn/o.png"},"display":{"url":"https://cdn/d.png"}},
				"user":{"username":"c"},"created_at":"2025-03-01T10:00:00Z"}`,
			want: domain.Bookmark{ID: "4", Kind: domain.KindImage, URL: "https://cdn/o.png", ImageURL: "https://cdn/d.png", Title: "Untitled Image", SavedBy: "c", SavedAt: t1},
		},
		{
			name: "text prefers content over description",
			raw: `{"id":1,"class":"Text","content":"hi","description":"ignored",
				"user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`,
			want: domain.Bookmark{ID: "1", Kind: domain.KindText, Title: "Text Block", Note: "hi", SavedBy: "a", SavedAt: t1},
		},
		{
			name: "text ignores source",
			raw: `{"id":5,"class":"Text","title":"Quote","source":{"url":"https://nope"},
				"user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`,
			want: domain.Bookmark{ID: "5", Kind: domain.KindText, Title: "Quote", SavedBy: "a", SavedAt: t1},
		},
		{
			name: "media takes source url opportunistically",
			raw: `{"id":6,"class":"Media","source":{"url":"https://video"},
				"user":{"username":"d"},"created_at":"2025-03-01T10:00:00Z"}`,
			want: domain.Bookmark{ID: "6", Kind: domain.KindOther, URL: "https://video", Title: "Media Block", SavedBy: "d", SavedAt: t1},
		},
		{
			name: "attachment with malformed source keeps no url",
			raw: `{"id":7,"class":"Attachment","source":"https://not-an-object",
				"user":{"username":"d"},"created_at":"2025-03-01T10:00:00Z"}`,
			want: domain.Bookmark{ID: "7", Kind: domain.KindOther, Title: "Attachment Block", SavedBy: "d", SavedAt: t1},
		},
		{
			name: "unknown class falls back to class label",
			raw: `{"id":"abc","class":"Hologram","description":"future",
				"user":{"username":"e"},"created_at":"2025-03-01T10:00:00Z"}`,
			want: domain.Bookmark{ID: "abc", Kind: domain.KindOther, Title: "Hologram Block", Note: "future", SavedBy: "e", SavedAt: t1},
		},
		{
			name: "channel block",
			raw: `{"id":8,"class":"Channel","title":"Nested","user":{"username":"f"},
				"created_at":"2025-03-01T10:00:00Z"}`,
			want: domain.Bookmark{ID: "8", Kind: domain.KindOther, Title: "Nested", SavedBy: "f", SavedAt: t1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := DecodeBlock(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("DecodeBlock() error = %v", err)
			}
			got, err := Normalize(block)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeSkips(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{
			name:   "link without source",
			raw:    `{"id":1,"class":"Link","title":"t","user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`,
			reason: "unmappable, no source URL",
		},
		{
			name:   "link with empty source url",
			raw:    `{"id":1,"class":"Link","source":{"url":""},"user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`,
			reason: "unmappable, no source URL",
		},
		{
			name:   "untitled link with blank source url",
			raw:    `{"id":1,"class":"Link","title":"","source":{"url":"   "},"user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`,
			reason: "unmappable, no source URL",
		},
		{
			name:   "image without display url",
			raw:    `{"id":2,"class":"Image","image":{"original":{"url":"https://o"}},"user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`,
			reason: "unmappable, missing image URLs",
		},
		{
			name:   "image without image object",
			raw:    `{"id":2,"class":"Image","user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`,
			reason: "unmappable, missing image URLs",
		},
		{
			name:   "unparsable timestamp",
			raw:    `{"id":3,"class":"Text","content":"x","user":{"username":"a"},"created_at":"yesterday"}`,
			reason: `unparsable created_at "yesterday"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := DecodeBlock(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("DecodeBlock() error = %v", err)
			}
			_, err = Normalize(block)

			var skipErr *SkipError
			if !errors.As(err, &skipErr) {
				t.Fatalf("Normalize() error = %v, want *SkipError", err)
			}
			if skipErr.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", skipErr.Reason, tt.reason)
			}
		})
	}
}

func TestNormalizeAllKeepsOrderAndIsolatesFailures(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"id":1,"class":"Text","content":"hi","user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`),
		json.RawMessage(`{"id":9,"class":"Link","title":"no source","user":{"username":"z"},"created_at":"2025-03-01T10:00:00Z"}`),
		json.RawMessage(`"not even an object"`),
		json.RawMessage(`{"id":2,"class":"Link","source":{"url":"http://x"},"title":"X","user":{"username":"b"},"created_at":"2025-03-02T11:30:00Z"}`),
	}

	got, skipped := NormalizeAll(raws)

	want := []domain.Bookmark{
		{ID: "1", Kind: domain.KindText, Title: "Text Block", Note: "hi", SavedBy: "a", SavedAt: t1},
		{ID: "2", Kind: domain.KindLink, URL: "http://x", Title: "X", SavedBy: "b", SavedAt: t2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeAll() mismatch (-want +got):\n%s", diff)
	}
	if len(skipped) != 2 {
		t.Errorf("expected 2 skipped elements, got %d: %v", len(skipped), skipped)
	}
}

func TestNormalizeAllDropsLinkWithoutSourceExactlyOnce(t *testing.T) {
	good := `{"id":%d,"class":"Link","source":{"url":"https://ok"},"user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`
	raws := []json.RawMessage{
		json.RawMessage(fmt.Sprintf(good, 1)),
		json.RawMessage(fmt.Sprintf(good, 2)),
		json.RawMessage(fmt.Sprintf(good, 3)),
	}
	before, _ := NormalizeAll(raws)

	raws = append(raws, json.RawMessage(`{"id":4,"class":"Link","user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`))
	after, _ := NormalizeAll(raws)

	if len(after) != len(raws)-1 || len(after) != len(before) {
		t.Errorf("got %d bookmarks from %d blocks, want exactly one dropped", len(after), len(raws))
	}
}

func TestNormalizeAllDeduplicatesIDs(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"id":1,"class":"Text","content":"first","user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`),
		json.RawMessage(`{"id":1,"class":"Text","content":"second","user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`),
	}

	got, skipped := NormalizeAll(raws)
	if len(got) != 1 || got[0].Note != "first" {
		t.Fatalf("NormalizeAll() = %+v, want only the first occurrence", got)
	}
	if len(skipped) != 1 {
		t.Errorf("expected duplicate to be reported, got %v", skipped)
	}
}

func TestNormalizeAllIsIdempotent(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"id":10,"class":"Image","image":{"original":{"url":"https://o"},"display":{"url":"https://d"}},"user":{"username":"a"},"created_at":"2025-03-01T10:00:00Z"}`),
		json.RawMessage(`{"id":11,"class":"Media","user":{"full_name":"Someone"},"created_at":"2025-03-01T10:00:00Z"}`),
	}

	first, _ := NormalizeAll(raws)
	second, _ := NormalizeAll(raws)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("NormalizeAll() not idempotent:\n%s\n%s", a, b)
	}
}

func TestDecodeBlockRequiresID(t *testing.T) {
	if _, err := DecodeBlock(json.RawMessage(`{"class":"Text"}`)); err == nil {
		t.Error("DecodeBlock() without id should fail")
	}
}

func TestBlockIDForms(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `{"id":12345,"class":"Text"}`, want: "12345"},
		{raw: `{"id":"s-1","class":"Text"}`, want: "s-1"},
	}
	for _, tt := range tests {
		block, err := DecodeBlock(json.RawMessage(tt.raw))
		if err != nil {
			t.Fatalf("DecodeBlock(%s) error = %v", tt.raw, err)
		}
		if got := block.Base().ID; got != tt.want {
			t.Errorf("id = %q, want %q", got, tt.want)
		}
	}
}
