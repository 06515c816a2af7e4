// Package books defines the catalog record produced by the extractor and
// consumed by storage, enrichment, prompting and the HTTP API.
package books

import (
	"regexp"
	"strings"
)

// LinkCategory names a purchase or reference link kind.
type LinkCategory string

const (
	Amazon    LinkCategory = "amazon"
	Bookshop  LinkCategory = "bookshop"
	Goodreads LinkCategory = "goodreads"
)

// Categories returns every known link category in a stable order.
func Categories() []LinkCategory {
	return []LinkCategory{Amazon, Bookshop, Goodreads}
}

// Links holds one URL per category. Every key is always serialized; an absent
// link is the empty string.
type Links struct {
	Amazon    string `json:"amazon" yaml:"amazon"`
	Bookshop  string `json:"bookshop" yaml:"bookshop"`
	Goodreads string `json:"goodreads" yaml:"goodreads"`
}

// Get returns the URL stored for cat, or "" for unknown categories.
func (l Links) Get(cat LinkCategory) string {
	switch cat {
	case Amazon:
		return l.Amazon
	case Bookshop:
		return l.Bookshop
	case Goodreads:
		return l.Goodreads
	}
	return ""
}

// With returns a copy of l with cat set to url. Unknown categories leave l unchanged.
func (l Links) With(cat LinkCategory, url string) Links {
	switch cat {
	case Amazon:
		l.Amazon = url
	case Bookshop:
		l.Bookshop = url
	case Goodreads:
		l.Goodreads = url
	}
	return l
}

// Record is one validated book entry. Rank, Title and Author are always set;
// the remaining fields default to "".
type Record struct {
	Rank           int    `json:"rank" yaml:"rank"`
	Title          string `json:"title" yaml:"title"`
	Author         string `json:"author" yaml:"author"`
	OtherNames     string `json:"otherNames" yaml:"otherNames"`
	CoverReference string `json:"coverReference" yaml:"coverReference"`
	Description    string `json:"description" yaml:"description"`
	Links          Links  `json:"links" yaml:"links"`
}

// Valid reports whether the mandatory fields are present.
func (r Record) Valid() bool {
	return r.Rank > 0 && strings.TrimSpace(r.Title) != "" && strings.TrimSpace(r.Author) != ""
}

// BookString renders the "TITLE by AUTHOR" identifier used in prompts.
func (r Record) BookString() string {
	return r.Title + " by " + r.Author
}

var byRe = regexp.MustCompile(`(?i)^(.*?)\s+by\s+(.*)$`)

// ParseBookString splits "TITLE by AUTHOR" on the first " by ". It returns
// ok=false when either side is empty.
func ParseBookString(s string) (title, author string, ok bool) {
	m := byRe.FindStringSubmatch(strings.TrimSpace(s))
	if len(m) != 3 {
		return "", "", false
	}
	title = strings.TrimSpace(m[1])
	author = strings.TrimSpace(m[2])
	if title == "" || author == "" {
		return "", "", false
	}
	return title, author, true
}
