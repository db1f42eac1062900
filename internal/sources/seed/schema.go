package seed

// Entry is one bookmark in a seed file.
type Entry struct {
	URL     string `yaml:"url"`
	Title   string `yaml:"title"`
	Note    string `yaml:"note"`
	SavedBy string `yaml:"savedBy"`
}

// Item is either a plain entry or a group attributing many entries to one
// person, depending on whether it has a "bookmarks" key:
//
//	- url: https://example.com
//	  title: Example
//	  savedBy: ann
//	- savedBy: zak
//	  bookmarks:
//	    - url: https://go.dev
//	      title: Go
type Item struct {
	Entry     `yaml:",inline"`
	Bookmarks []Entry `yaml:"bookmarks"`
}

// File is the root of a seed file.
type File []Item
