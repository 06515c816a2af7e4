package recommend

import (
	"strings"

	"github.com/hyperifyio/bookmatch/internal/books"
	"github.com/hyperifyio/bookmatch/internal/prompt"
)

type catalogIndex struct {
	records []books.Record
	exact   map[string]int
}

func newCatalogIndex(records []books.Record) *catalogIndex {
	idx := &catalogIndex{records: records, exact: make(map[string]int, len(records))}
	for i, r := range records {
		if _, dup := idx.exact[r.BookString()]; !dup {
			idx.exact[r.BookString()] = i
		}
	}
	return idx
}

// lookup finds the record a "TITLE by AUTHOR" string refers to: an exact
// match first, then a case-insensitive title and author match, then the one
// record with that title whose author contains the given author. Ambiguous
// or unmatched strings are not resolved.
func (c *catalogIndex) lookup(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if i, ok := c.exact[s]; ok {
		return i, true
	}
	title, author, ok := books.ParseBookString(s)
	if !ok {
		return 0, false
	}
	title = strings.ToLower(strings.TrimSpace(title))
	author = strings.ToLower(strings.TrimSpace(author))
	if title == "" || author == "" {
		return 0, false
	}
	for i, r := range c.records {
		if strings.ToLower(r.Title) == title && strings.ToLower(r.Author) == author {
			return i, true
		}
	}
	found := -1
	for i, r := range c.records {
		if strings.ToLower(r.Title) != title || !strings.Contains(strings.ToLower(r.Author), author) {
			continue
		}
		if found >= 0 {
			return 0, false
		}
		found = i
	}
	return found, found >= 0
}

// resolve maps model strings onto records, dropping unknown and repeated
// books and stopping at prompt.MaxPerList.
func (c *catalogIndex) resolve(strs []string, unknown func(string)) []Pick {
	picks := make([]Pick, 0, len(strs))
	seen := make(map[int]bool)
	for _, s := range strs {
		if len(picks) >= prompt.MaxPerList {
			break
		}
		i, ok := c.lookup(s)
		if !ok {
			unknown(s)
			continue
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		picks = append(picks, Pick{BookString: c.records[i].BookString(), Book: c.records[i]})
	}
	return picks
}
