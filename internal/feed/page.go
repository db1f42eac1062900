package feed

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
	_ "time/tzdata" // dateline zone must resolve on minimal images

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
)

//go:embed templates/page.html.tmpl
var templates embed.FS

// PageOptions is the static part of the HTML page.
type PageOptions struct {
	Title       string // <title>, ex: "Bookmarks with Friends"
	Description string
	Masthead    string // big header text, ex: "INGROUP.NEWS"
	Tagline     string
	FeedURL     string         // ex: "/api/feed.xml"
	Location    *time.Location // dateline zone, defaults to America/New_York
}

// Page renders the public bookmark page. It is safe for concurrent use.
type Page struct {
	opts PageOptions
	tmpl *template.Template
}

type pageView struct {
	PageOptions
	Groups   Groups
	Count    int
	Dateline string
	Year     int
}

func (v pageView) LinkColumns() [][]domain.Bookmark {
	left, right := v.Groups.LinkColumns()
	return [][]domain.Bookmark{left, right}
}

func NewPage(opts PageOptions) (*Page, error) {
	if opts.Location == nil {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			return nil, fmt.Errorf("failed to load dateline zone: %w", err)
		}
		opts.Location = loc
	}
	if opts.FeedURL == "" {
		opts.FeedURL = "/api/feed.xml"
	}

	tmpl, err := template.New("page.html.tmpl").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
		"stamp": func(t time.Time) string {
			return t.In(opts.Location).Format("01/02/06 03:04 PM")
		},
	}).ParseFS(templates, "templates/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &Page{opts: opts, tmpl: tmpl}, nil
}

// Render writes the page for bookmarks as of now.
func (p *Page) Render(w io.Writer, bookmarks []domain.Bookmark, now time.Time) error {
	local := now.In(p.opts.Location)
	view := pageView{
		PageOptions: p.opts,
		Groups:      Group(bookmarks),
		Count:       len(bookmarks),
		Dateline:    strings.ToUpper(local.Format("Mon, Jan 2, 2006 03:04 PM MST")),
		Year:        local.Year(),
	}

	if err := p.tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}
