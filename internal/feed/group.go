package feed

import "github.com/zakhap/bookmarks-with-friends/internal/domain"

// Groups splits a feed by kind. Each group keeps the feed order.
type Groups struct {
	Links  []domain.Bookmark
	Images []domain.Bookmark
	Texts  []domain.Bookmark
	Others []domain.Bookmark
}

func Group(bookmarks []domain.Bookmark) Groups {
	var g Groups
	for _, b := range bookmarks {
		switch b.Kind {
		case domain.KindLink:
			g.Links = append(g.Links, b)
		case domain.KindImage:
			g.Images = append(g.Images, b)
		case domain.KindText:
			g.Texts = append(g.Texts, b)
		default:
			g.Others = append(g.Others, b)
		}
	}
	return g
}

// LinkColumns splits links in two; the left column gets the extra one.
func (g Groups) LinkColumns() (left, right []domain.Bookmark) {
	mid := (len(g.Links) + 1) / 2
	return g.Links[:mid], g.Links[mid:]
}
