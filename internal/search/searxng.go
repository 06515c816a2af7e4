package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoBaseURL is returned when SearxNG has no instance configured.
var ErrNoBaseURL = errors.New("missing searxng base url")

// SearxNG queries the JSON API of a SearxNG instance. Hits outside Policy
// are dropped before the limit is applied.
type SearxNG struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	UserAgent  string
	Policy     DomainPolicy
}

func (s *SearxNG) Name() string { return "searxng" }

// Search returns up to limit allowed hits for query; limit <= 0 means 10.
func (s *SearxNG) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	endpoint, err := s.endpoint(query, limit)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("searxng status: %d", resp.StatusCode)
	}
	var body searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode searxng response: %w", err)
	}
	return s.collect(body, limit), nil
}

// endpoint builds the /search URL, appending the path when BaseURL is the
// instance root.
func (s *SearxNG) endpoint(query string, limit int) (string, error) {
	if s.BaseURL == "" {
		return "", ErrNoBaseURL
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("searxng base url: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("language", "auto")
	q.Set("safesearch", "1")
	q.Set("categories", "general")
	q.Set("count", strconv.Itoa(limit))
	if s.APIKey != "" {
		q.Set("apikey", s.APIKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *SearxNG) collect(body searxResponse, limit int) []Result {
	out := make([]Result, 0, min(limit, len(body.Results)))
	for _, hit := range body.Results {
		link := strings.TrimSpace(hit.URL)
		title := strings.TrimSpace(hit.Title)
		if link == "" || title == "" || !s.Policy.Allows(link) {
			continue
		}
		out = append(out, Result{Title: title, URL: link, Snippet: strings.TrimSpace(hit.Content), Source: s.Name()})
		if len(out) == limit {
			break
		}
	}
	return out
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}
