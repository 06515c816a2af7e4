package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// FileProvider answers queries from a local JSON fixture, an array of
// {"title", "url", "snippet"} objects. A result matches when every query
// term appears in its title, URL or snippet (case-insensitive).
type FileProvider struct {
	Path   string
	Policy DomainPolicy
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("file provider path is empty")
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var raw []Result
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	terms := strings.Fields(strings.ToLower(query))
	out := make([]Result, 0, len(raw))
	for _, r := range f.Policy.filter(raw) {
		if r.URL == "" || r.Title == "" {
			continue
		}
		if !matchesAll(r, terms) {
			continue
		}
		r.Source = f.Name()
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func matchesAll(r Result, terms []string) bool {
	hay := strings.ToLower(r.Title + " " + r.URL + " " + r.Snippet)
	for _, t := range terms {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}
