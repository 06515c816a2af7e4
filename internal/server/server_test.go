package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/bookmatch/internal/books"
	"github.com/hyperifyio/bookmatch/internal/prompt"
	"github.com/hyperifyio/bookmatch/internal/recommend"
	"github.com/hyperifyio/bookmatch/internal/store"
)

func catalog() []books.Record {
	return []books.Record{
		{Rank: 1, Title: "Dune", Author: "Frank Herbert"},
		{Rank: 2, Title: "Beloved", Author: "Toni Morrison"},
	}
}

type stubRecommender struct {
	err       error
	gotAnswer prompt.Answers
	gotQs     int
}

func (s *stubRecommender) Recommend(_ context.Context, qs []prompt.Question, a prompt.Answers, recs []books.Record) (recommend.Recommendations, error) {
	s.gotAnswer = a
	s.gotQs = len(qs)
	if s.err != nil {
		return recommend.Recommendations{}, s.err
	}
	return recommend.Recommendations{
		ID:            "res-1",
		CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LikelyToEnjoy: recommend.List{OverallStatement: "ok", Books: []recommend.Pick{{BookString: recs[0].BookString(), Book: recs[0]}}},
	}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndBooks(t *testing.T) {
	h := New(Config{Catalog: catalog(), Logger: zerolog.Nop()})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","books":2}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []books.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, catalog(), got)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestBookByRank(t *testing.T) {
	h := New(Config{Catalog: catalog(), Logger: zerolog.Nop()})

	rec := do(t, h, http.MethodGet, "/api/books/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Beloved"`)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/books/7", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/books/first", "").Code)
}

func TestBookByRank_UsesSQLiteLookup(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Replace(ctx, []books.Record{{Rank: 5, Title: "Emma", Author: "Jane Austen"}}))

	h := New(Config{Catalog: catalog(), Lookup: db, Logger: zerolog.Nop()})
	rec := do(t, h, http.MethodGet, "/api/books/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Emma"`)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/books/1", "").Code)
}

type brokenLookup struct{}

func (brokenLookup) ByRank(context.Context, int) (books.Record, error) {
	return books.Record{}, errors.New("disk gone")
}

func TestBookByRank_LookupFailure(t *testing.T) {
	h := New(Config{Lookup: brokenLookup{}, Logger: zerolog.Nop()})
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/books/1", "").Code)
}

func TestEmptyCatalogIsArray(t *testing.T) {
	h := New(Config{Logger: zerolog.Nop()})
	rec := do(t, h, http.MethodGet, "/api/books", "")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRecommendations(t *testing.T) {
	stub := &stubRecommender{}
	results := store.NewMemoryResults()
	h := New(Config{Catalog: catalog(), Recommender: stub, Results: results, Logger: zerolog.Nop()})

	rec := do(t, h, http.MethodPost, "/api/recommendations", `{"answers":{"q1":"Fantasy","q3":["Dune"]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"resultsId":"res-1"`)
	assert.Equal(t, len(prompt.SampleQuestions()), stub.gotQs, "questions default to the sample survey")
	assert.Equal(t, prompt.Answer{"Dune"}, stub.gotAnswer["q3"])

	saved := do(t, h, http.MethodGet, "/api/results/res-1", "")
	require.Equal(t, http.StatusOK, saved.Code)
	assert.JSONEq(t, rec.Body.String(), saved.Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/results/other", "").Code)
}

func TestRecommendations_Errors(t *testing.T) {
	h := New(Config{Catalog: catalog(), Logger: zerolog.Nop()})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/recommendations", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/results/x", "").Code)

	cases := []struct {
		err  error
		want int
	}{
		{recommend.ErrNoAnswers, http.StatusBadRequest},
		{recommend.ErrEmptyCatalog, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: eof", recommend.ErrBadResponse), http.StatusBadGateway},
		{fmt.Errorf("selection: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		h := New(Config{Catalog: catalog(), Recommender: &stubRecommender{err: c.err}, Logger: zerolog.Nop()})
		rec := do(t, h, http.MethodPost, "/api/recommendations", `{"answers":{"q1":"x"}}`)
		assert.Equal(t, c.want, rec.Code, c.err.Error())
	}

	h = New(Config{Catalog: catalog(), Recommender: &stubRecommender{}, Logger: zerolog.Nop()})
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/recommendations", `{"answers":`).Code)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	h := New(Config{Catalog: catalog(), Logger: zerolog.New(&buf)})
	do(t, h, http.MethodGet, "/api/books/9", "")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "http request", ev["message"])
	assert.Equal(t, float64(http.StatusNotFound), ev["status"])
	assert.Equal(t, "/api/books/9", ev["path"])
	assert.NotEmpty(t, ev["request_id"])
}
