package seed

import (
	"fmt"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
)

// Skipped reports a seed entry that could not be imported.
type Skipped struct {
	Index int // position in the flattened file
	URL   string
	Err   error
}

func (s Skipped) Error() string {
	return fmt.Sprintf("entry %d (%s): %v", s.Index, s.URL, s.Err)
}

// Map flattens a seed file into insertable bookmarks, in file order. Entries
// failing validation are reported in skipped and left out.
func Map(file File) (bookmarks []domain.NewBookmark, skipped []Skipped, err error) {
	index := 0
	add := func(e Entry) {
		nb, verr := domain.ValidateInput(domain.CreateInput{
			URL:     e.URL,
			Title:   e.Title,
			Note:    e.Note,
			SavedBy: e.SavedBy,
		})
		if verr != nil {
			skipped = append(skipped, Skipped{Index: index, URL: e.URL, Err: verr})
		} else {
			bookmarks = append(bookmarks, nb)
		}
		index++
	}

	for _, item := range file {
		if item.Bookmarks == nil {
			add(item.Entry)
			continue
		}
		for _, e := range item.Bookmarks {
			if e.SavedBy == "" {
				e.SavedBy = item.SavedBy
			}
			add(e)
		}
	}

	if len(bookmarks) == 0 {
		return nil, skipped, fmt.Errorf("no valid bookmarks found in seed file")
	}

	return bookmarks, skipped, nil
}
