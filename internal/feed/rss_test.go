package feed

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
)

var (
	buildTime = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	savedTime = time.Date(2025, 3, 2, 11, 30, 0, 0, time.UTC)
)

func testChannel() Channel {
	return Channel{
		Title:       "Bookmarks with Friends",
		Link:        "https://example.org",
		Description: "Shared bookmarks from friends",
		SelfURL:     "https://example.org/api/feed.xml",
	}
}

func TestBuildRSSParsesBack(t *testing.T) {
	bookmarks := []domain.Bookmark{
		{ID: "2", Kind: domain.KindLink, URL: "http://x", Title: "X", Note: "a note", SavedBy: "b", SavedAt: savedTime},
		{ID: "1", Kind: domain.KindText, Title: "Text Block", Note: "hi", SavedBy: "a", SavedAt: savedTime.Add(-time.Hour)},
	}

	out, err := BuildRSS(bookmarks, testChannel(), buildTime)
	if err != nil {
		t.Fatalf("BuildRSS() error = %v", err)
	}

	f, err := gofeed.NewParser().ParseString(string(out))
	if err != nil {
		t.Fatalf("generated feed does not parse: %v\n%s", err, out)
	}

	if f.Title != "Bookmarks with Friends" || f.Language != "en-us" {
		t.Errorf("channel = %q / %q", f.Title, f.Language)
	}
	if len(f.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(f.Items))
	}

	first := f.Items[0]
	if first.Title != "X" || first.Link != "http://x" || first.GUID != "2" || first.Description != "a note" {
		t.Errorf("first item = %+v", first)
	}
	if first.PublishedParsed == nil || !first.PublishedParsed.Equal(savedTime) {
		t.Errorf("pubDate = %v, want %v", first.Published, savedTime)
	}
	if f.Items[1].GUID != "1" {
		t.Errorf("items reordered: second guid = %q", f.Items[1].GUID)
	}
}

func TestBuildRSSLayout(t *testing.T) {
	out, err := BuildRSS([]domain.Bookmark{
		{ID: "42", Kind: domain.KindText, Title: "T", SavedBy: "a", SavedAt: savedTime},
	}, testChannel(), buildTime)
	if err != nil {
		t.Fatalf("BuildRSS() error = %v", err)
	}
	doc := string(out)

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`,
		`<atom:link href="https://example.org/api/feed.xml" rel="self" type="application/rss+xml"></atom:link>`,
		`<lastBuildDate>Mon, 03 Mar 2025 08:00:00 GMT</lastBuildDate>`,
		`<guid isPermaLink="false">42</guid>`,
		`<pubDate>Sun, 02 Mar 2025 11:30:00 GMT</pubDate>`,
		`<author>a</author>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("feed missing %s\n%s", want, doc)
		}
	}

	// No note, no url: the optional elements are omitted.
	if strings.Contains(doc, "<item>\n      <title>T</title>\n      <link>") || strings.Contains(doc, "<description></description>") {
		t.Errorf("empty optional elements rendered:\n%s", doc)
	}
}

func TestBuildRSSEscapesText(t *testing.T) {
	nasty := `Tom & "Jerry" <script>'x'</script>`
	out, err := BuildRSS([]domain.Bookmark{
		{ID: "1", Kind: domain.KindLink, URL: "https://x/?a=1&b=2", Title: nasty, Note: nasty, SavedBy: "a&b", SavedAt: savedTime},
	}, testChannel(), buildTime)
	if err != nil {
		t.Fatalf("BuildRSS() error = %v", err)
	}

	if bytes.Contains(out, []byte("<script>")) || bytes.Contains(out, []byte("a=1&b=2")) {
		t.Fatalf("unescaped text in feed:\n%s", out)
	}

	if _, err := gofeed.NewParser().ParseString(string(out)); err != nil {
		t.Fatalf("escaped feed does not parse: %v", err)
	}

	var doc rssDocument
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("xml.Unmarshal() error = %v", err)
	}
	item := doc.Channel.Items[0]
	if item.Title != nasty || item.Description != nasty || item.Link != "https://x/?a=1&b=2" || item.Author != "a&b" {
		t.Errorf("round trip lost text: %+v", item)
	}
}

func TestBuildRSSEmpty(t *testing.T) {
	out, err := BuildRSS(nil, testChannel(), buildTime)
	if err != nil {
		t.Fatalf("BuildRSS() error = %v", err)
	}
	f, err := gofeed.NewParser().ParseString(string(out))
	if err != nil {
		t.Fatalf("empty feed does not parse: %v", err)
	}
	if len(f.Items) != 0 {
		t.Errorf("got %d items, want 0", len(f.Items))
	}
}
