package extract

// Extractor turns a whole page into records and diagnostics. Callers such as
// the CLI and the HTTP server depend on this interface so alternative page
// layouts can be plugged in without touching them.
type Extractor interface {
	// Extract never fails; malformed input shows up in Result.Diagnostics.
	Extract(doc string) Result
}

// BookListExtractor reads ranked book-list pages.
type BookListExtractor struct{}

func (BookListExtractor) Extract(doc string) Result {
	return Assemble(doc)
}
