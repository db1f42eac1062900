package seed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
)

const sample = `---
- url: https://go.dev
  title: The Go Programming Language
  note: start here
  savedBy: ann
- savedBy: zak
  bookmarks:
    - url: https://pkg.go.dev
      title: Packages
    - url: https://example.com
      title: Someone else's
      savedBy: bo
- url: not a url
  title: Broken
  savedBy: ann
- url: {{PRIVATE_URL}}
  title: Hidden
  savedBy: ann
`

func TestLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	file, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(file) != 4 {
		t.Fatalf("Load() returned %d items, want 4", len(file))
	}
	if got := len(file[1].Bookmarks); got != 2 {
		t.Errorf("group has %d bookmarks, want 2", got)
	}
	if file[3].URL != "" {
		t.Errorf("template variable not stripped: %q", file[3].URL)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/path/seed.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestParseRejectsWrongShape(t *testing.T) {
	if _, err := Parse([]byte("url: https://go.dev\n")); err == nil {
		t.Error("Parse() of a mapping root should fail")
	}
}

func TestMap(t *testing.T) {
	file, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	bookmarks, skipped, err := Map(file)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	want := []domain.NewBookmark{
		{URL: "https://go.dev", Title: "The Go Programming Language", Note: "start here", SavedBy: "ann"},
		{URL: "https://pkg.go.dev", Title: "Packages", SavedBy: "zak"},
		{URL: "https://example.com", Title: "Someone else's", SavedBy: "bo"},
	}
	if len(bookmarks) != len(want) {
		t.Fatalf("Map() returned %d bookmarks, want %d: %+v", len(bookmarks), len(want), bookmarks)
	}
	for i := range want {
		if bookmarks[i] != want[i] {
			t.Errorf("bookmark %d = %+v, want %+v", i, bookmarks[i], want[i])
		}
	}

	if len(skipped) != 2 {
		t.Fatalf("skipped %d entries, want 2: %v", len(skipped), skipped)
	}
	if skipped[0].Index != 3 || skipped[1].Index != 4 {
		t.Errorf("skipped indexes = %d, %d", skipped[0].Index, skipped[1].Index)
	}
	var verr *domain.ValidationError
	if !errors.As(skipped[0].Err, &verr) || verr.Field != "url" {
		t.Errorf("skip reason = %v, want url validation error", skipped[0].Err)
	}
}

func TestMapEmpty(t *testing.T) {
	if _, _, err := Map(File{}); err == nil {
		t.Error("Map() of an empty file should return error")
	}
}

func TestStripTemplateVariables(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "single template variable",
			input:    []byte("url: {{PRIVATE_URL}}"),
			expected: "url: \"\"",
		},
		{
			name:     "no template variables",
			input:    []byte("plain text"),
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripTemplateVariables(tt.input)
			if string(result) != tt.expected {
				t.Errorf("stripTemplateVariables() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}
