package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
)

const (
	// ContentTypeRSS is the media type the feed is served with.
	ContentTypeRSS = "application/rss+xml; charset=utf-8"
	// CacheControl lets shared caches hold the page and feed for the cache freshness window.
	CacheControl = "public, max-age=300, s-maxage=300"

	// RFC 1123 with a literal GMT zone, as RSS readers expect.
	pubDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"
	atomNamespace = "http://www.w3.org/2005/Atom"
)

// Channel is the feed-level metadata.
type Channel struct {
	Title       string
	Link        string // site root
	Description string
	SelfURL     string // absolute URL of the feed itself
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link,omitempty"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
	Author      string  `xml:"author,omitempty"`
	Description string  `xml:"description,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// BuildRSS renders bookmarks as an RSS 2.0 document, one item per bookmark
// in the given order.
func BuildRSS(bookmarks []domain.Bookmark, ch Channel, now time.Time) ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		Atom:    atomNamespace,
		Channel: rssChannel{
			Title:         ch.Title,
			Link:          ch.Link,
			Description:   ch.Description,
			Language:      "en-us",
			LastBuildDate: now.UTC().Format(pubDateLayout),
			AtomLink: atomLink{
				Href: ch.SelfURL,
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: make([]rssItem, 0, len(bookmarks)),
		},
	}

	for _, b := range bookmarks {
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       b.Title,
			Link:        b.URL,
			GUID:        rssGUID{IsPermaLink: "false", Value: b.ID},
			PubDate:     b.SavedAt.UTC().Format(pubDateLayout),
			Author:      b.SavedBy,
			Description: b.Note,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode rss: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}
