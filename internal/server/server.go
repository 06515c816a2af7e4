// Package server exposes the catalog and the recommender over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/bookmatch/internal/books"
	"github.com/hyperifyio/bookmatch/internal/prompt"
	"github.com/hyperifyio/bookmatch/internal/recommend"
	"github.com/hyperifyio/bookmatch/internal/store"
)

// maxBodyBytes caps POST bodies.
const maxBodyBytes = 1 << 20

// Recommender is the subset of recommend.Recommender the API needs.
type Recommender interface {
	Recommend(ctx context.Context, questions []prompt.Question, answers prompt.Answers, records []books.Record) (recommend.Recommendations, error)
}

// ResultStore keeps serialized recommendation results by id.
type ResultStore interface {
	PutResult(ctx context.Context, id string, createdAt time.Time, payload []byte) error
	GetResult(ctx context.Context, id string) ([]byte, error)
}

// BookLookup finds one record by rank, returning store.ErrNotFound when
// there is none.
type BookLookup interface {
	ByRank(ctx context.Context, rank int) (books.Record, error)
}

// Config wires the handler. Recommender, Results and Lookup are optional;
// without Lookup ranks are looked up in Catalog.
type Config struct {
	Catalog     []books.Record
	Lookup      BookLookup
	Recommender Recommender
	Results     ResultStore
	Logger      zerolog.Logger
}

type server struct {
	catalog []books.Record
	lookup  BookLookup
	rec     Recommender
	results ResultStore
	logger  zerolog.Logger
}

// catalogLookup serves ranks from the in-memory catalog.
type catalogLookup map[int]books.Record

func (c catalogLookup) ByRank(_ context.Context, rank int) (books.Record, error) {
	r, ok := c[rank]
	if !ok {
		return books.Record{}, store.ErrNotFound
	}
	return r, nil
}

// New returns the API router.
func New(cfg Config) http.Handler {
	s := &server{
		catalog: cfg.Catalog,
		lookup:  cfg.Lookup,
		rec:     cfg.Recommender,
		results: cfg.Results,
		logger:  cfg.Logger,
	}
	if s.catalog == nil {
		s.catalog = []books.Record{}
	}
	if s.lookup == nil {
		byRank := make(catalogLookup, len(s.catalog))
		for _, r := range s.catalog {
			if _, dup := byRank[r.Rank]; !dup {
				byRank[r.Rank] = r
			}
		}
		s.lookup = byRank
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/books", s.handleBooks)
		r.Get("/books/{rank}", s.handleBook)
		r.Post("/recommendations", s.handleRecommend)
		r.Get("/results/{id}", s.handleResult)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "books": len(s.catalog)})
}

func (s *server) handleBooks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

func (s *server) handleBook(w http.ResponseWriter, r *http.Request) {
	rank, err := strconv.Atoi(chi.URLParam(r, "rank"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "rank must be a number")
		return
	}
	rec, err := s.lookup.ByRank(r.Context(), rank)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no book with rank "+strconv.Itoa(rank))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int("rank", rank).Msg("book lookup failed")
		writeError(w, http.StatusInternalServerError, "book lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if s.rec == nil {
		writeError(w, http.StatusServiceUnavailable, "recommender not configured")
		return
	}
	var req prompt.Survey
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Questions) == 0 {
		req.Questions = prompt.SampleQuestions()
	}
	out, err := s.rec.Recommend(r.Context(), req.Questions, req.Answers, s.catalog)
	if err != nil {
		status := statusFor(err)
		s.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Int("status", status).Msg("recommendation failed")
		writeError(w, status, err.Error())
		return
	}
	if s.results != nil {
		if b, err := json.Marshal(out); err == nil {
			if err := s.results.PutResult(r.Context(), out.ID, out.CreatedAt, b); err != nil {
				s.logger.Warn().Err(err).Str("results", out.ID).Msg("store result failed")
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if s.results == nil {
		writeError(w, http.StatusNotFound, "results are not kept")
		return
	}
	b, err := s.results.GetResult(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown result "+id)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load result failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, recommend.ErrNoAnswers):
		return http.StatusBadRequest
	case errors.Is(err, recommend.ErrNotConfigured), errors.Is(err, recommend.ErrEmptyCatalog):
		return http.StatusServiceUnavailable
	case errors.Is(err, recommend.ErrBadResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
