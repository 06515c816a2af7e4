// Package enrich fills in Goodreads links for catalog records by querying a
// search provider.
package enrich

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/bookmatch/internal/books"
	"github.com/hyperifyio/bookmatch/internal/search"
)

// ErrNoProvider is returned when Enrich is called without a search provider.
var ErrNoProvider = errors.New("enrich: no search provider")

const goodreadsBookPath = "goodreads.com/book/show/"

// trackingParams are dropped from result URLs.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id",
	"gclid", "fbclid", "ref", "from_search", "from_srp", "qid", "rank",
}

// Stats summarizes one enrichment run.
type Stats struct {
	RunID         string `json:"runId"`
	Processed     int    `json:"processed"`
	Updated       int    `json:"updated"`
	AlreadyLinked int    `json:"alreadyLinked"`
	NotFound      int    `json:"notFound"`
	Errors        int    `json:"errors"`
}

// Goodreads looks up one book page per record. Lookups run sequentially
// with Delay between provider calls.
type Goodreads struct {
	Provider search.Provider
	// Delay is slept between provider calls. Zero disables it.
	Delay time.Duration
	// Limit caps how many records are looked up in one run. Zero means all.
	Limit int
	// Results is the number of hits requested per query. Zero means 5.
	Results int
	Logger  zerolog.Logger
}

// Query returns the search query used for a record.
func Query(r books.Record) string {
	return "goodreads " + r.Title + " " + r.Author
}

// Enrich returns a copy of records with Links.Goodreads filled where a book
// page was found. Records that already carry a link are left alone. Provider
// failures are logged and counted but do not stop the run; cancellation of
// ctx does, returning the records processed so far together with ctx.Err().
func (g *Goodreads) Enrich(ctx context.Context, records []books.Record) ([]books.Record, Stats, error) {
	out := make([]books.Record, len(records))
	copy(out, records)
	stats := Stats{RunID: uuid.NewString()}
	if g.Provider == nil {
		return out, stats, ErrNoProvider
	}
	logger := g.Logger.With().Str("run", stats.RunID).Str("provider", g.Provider.Name()).Logger()
	logger.Info().Int("records", len(records)).Msg("goodreads enrichment started")

	lookups := 0
	for i := range out {
		rec := &out[i]
		if rec.Links.Goodreads != "" {
			stats.AlreadyLinked++
			continue
		}
		if g.Limit > 0 && lookups >= g.Limit {
			break
		}
		if lookups > 0 && g.Delay > 0 {
			select {
			case <-ctx.Done():
				return out, stats, ctx.Err()
			case <-time.After(g.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return out, stats, err
		}
		lookups++
		stats.Processed++

		ev := logger.With().Int("rank", rec.Rank).Str("book", rec.BookString()).Logger()
		link, err := g.find(ctx, *rec)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return out, stats, ctx.Err()
			}
			stats.Errors++
			ev.Warn().Err(err).Msg("goodreads search failed")
		case link == "":
			stats.NotFound++
			ev.Debug().Msg("goodreads link not found")
		default:
			rec.Links = rec.Links.With(books.Goodreads, link)
			stats.Updated++
			ev.Debug().Str("url", link).Msg("goodreads link found")
		}
	}
	logger.Info().
		Int("processed", stats.Processed).
		Int("updated", stats.Updated).
		Int("already_linked", stats.AlreadyLinked).
		Int("not_found", stats.NotFound).
		Int("errors", stats.Errors).
		Msg("goodreads enrichment finished")
	return out, stats, nil
}

func (g *Goodreads) find(ctx context.Context, r books.Record) (string, error) {
	limit := g.Results
	if limit <= 0 {
		limit = 5
	}
	results, err := g.Provider.Search(ctx, Query(r), limit)
	if err != nil {
		return "", err
	}
	for _, res := range results {
		if IsBookPage(res.URL) {
			return Canonical(res.URL), nil
		}
	}
	return "", nil
}

// IsBookPage reports whether rawURL points at a Goodreads book page.
func IsBookPage(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), goodreadsBookPath)
}

// Canonical lowercases the host and drops the fragment and tracking
// parameters. Unparseable input is returned trimmed.
func Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
