// Package search looks up web pages through a pluggable provider. It backs
// Goodreads link enrichment.
package search

import (
	"context"
	"net/url"
	"strings"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source,omitempty"` // provider name
}

// Provider is implemented by every search backend.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// DomainPolicy filters results by host. Denylist wins over Allowlist; an
// empty Allowlist allows every host not denied. Entries match the host
// itself and its subdomains.
type DomainPolicy struct {
	Allowlist []string
	Denylist  []string
}

// Allows reports whether rawURL passes the policy.
func (p DomainPolicy) Allows(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range p.Denylist {
		if hostMatches(host, d) {
			return false
		}
	}
	if len(p.Allowlist) == 0 {
		return true
	}
	for _, a := range p.Allowlist {
		if hostMatches(host, a) {
			return true
		}
	}
	return false
}

func hostMatches(host, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func (p DomainPolicy) filter(in []Result) []Result {
	if len(p.Allowlist) == 0 && len(p.Denylist) == 0 {
		return in
	}
	out := in[:0]
	for _, r := range in {
		if p.Allows(r.URL) {
			out = append(out, r)
		}
	}
	return out
}
