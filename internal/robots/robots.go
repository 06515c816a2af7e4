// Package robots fetches, caches and evaluates robots.txt for the hosts the
// source page is downloaded from.
package robots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/bookmatch/internal/cache"
)

// ErrDisallowed is returned by Check when robots.txt forbids the URL.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Source reports where a rule set came from.
type Source int

const (
	SourceNetwork Source = iota
	SourceMemory
	SourceCache304
)

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one User-agent block.
type Group struct {
	Agents     []string
	Allow      []string
	Disallow   []string
	CrawlDelay *time.Duration
}

// disallowAll is used while a host's robots.txt is unreachable.
var disallowAll = Rules{Groups: []Group{{Agents: []string{"*"}, Disallow: []string{"/"}}}}

// Manager fetches robots.txt once per host and keeps it in memory until
// EntryExpiry. With Cache set, later fetches revalidate with ETag and
// Last-Modified. Check spaces requests to a host by its Crawl-delay.
type Manager struct {
	HTTPClient        *http.Client
	Cache             *cache.PageCache
	UserAgent         string
	EntryExpiry       time.Duration
	AllowPrivateHosts bool

	mu   sync.Mutex
	mem  map[string]memEntry
	next map[string]time.Time
	now  func() time.Time
}

type memEntry struct {
	rules  Rules
	expiry time.Time
}

// Check returns ErrDisallowed when rawURL may not be fetched by m.UserAgent.
// Non-HTTP URLs are always allowed.
func (m *Manager) Check(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()
	rules, _, err := m.Get(ctx, robotsURL)
	if err != nil {
		return err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !rules.IsAllowed(m.UserAgent, path) {
		return fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
	}
	if d := rules.CrawlDelayFor(m.UserAgent); d != nil && *d > 0 {
		return m.pace(ctx, u.Host, *d)
	}
	return nil
}

// pace reserves the next request slot for host and sleeps until it opens.
func (m *Manager) pace(ctx context.Context, host string, delay time.Duration) error {
	m.mu.Lock()
	if m.next == nil {
		m.next = make(map[string]time.Time)
	}
	now := m.now()
	slot := m.next[host]
	if slot.Before(now) {
		slot = now
	}
	m.next[host] = slot.Add(delay)
	m.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get returns the rules at robotsURL. A 404 (or any other 4xx except 401 and
// 403) yields an empty rule set. 5xx, 401, 403 and network failures yield a
// temporary disallow-all, cached like any other answer.
func (m *Manager) Get(ctx context.Context, robotsURL string) (Rules, Source, error) {
	m.mu.Lock()
	if m.now == nil {
		m.now = time.Now
	}
	if m.mem == nil {
		m.mem = make(map[string]memEntry)
	}
	m.mu.Unlock()

	u, err := url.Parse(robotsURL)
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return Rules{}, SourceNetwork, fmt.Errorf("unsupported url scheme: %q", robotsURL)
	}
	if host := u.Hostname(); !m.AllowPrivateHosts && isLocalOrPrivateHost(host) {
		return Rules{}, SourceNetwork, fmt.Errorf("private host not allowed: %s", host)
	}

	m.mu.Lock()
	if ent, ok := m.mem[robotsURL]; ok && m.now().Before(ent.expiry) {
		m.mu.Unlock()
		return ent.rules, SourceMemory, nil
	}
	m.mu.Unlock()

	var etag, lastMod string
	if m.Cache != nil {
		if meta, err := m.Cache.Meta(ctx, robotsURL); err == nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("new request: %w", err)
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Rules{}, SourceNetwork, ctx.Err()
		}
		m.storeMem(robotsURL, disallowAll)
		return disallowAll, SourceNetwork, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && m.Cache != nil:
		body, err := m.Cache.Body(ctx, robotsURL)
		if err != nil {
			return Rules{}, SourceCache304, fmt.Errorf("load cached robots: %w", err)
		}
		rules := parseRobots(string(body))
		m.storeMem(robotsURL, rules)
		return rules, SourceCache304, nil
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		m.storeMem(robotsURL, disallowAll)
		return disallowAll, SourceNetwork, nil
	case resp.StatusCode >= 400:
		m.storeMem(robotsURL, Rules{})
		return Rules{}, SourceNetwork, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, SourceNetwork, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("read robots: %w", err)
	}
	if m.Cache != nil {
		_ = m.Cache.Save(ctx, robotsURL, "text/plain", resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), data)
	}
	rules := parseRobots(string(data))
	m.storeMem(robotsURL, rules)
	return rules, SourceNetwork, nil
}

func (m *Manager) storeMem(key string, rules Rules) {
	exp := m.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	m.mu.Lock()
	m.mem[key] = memEntry{rules: rules, expiry: m.now().Add(exp)}
	m.mu.Unlock()
}

func parseRobots(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	current := Group{}
	flush := func() {
		if len(current.Agents) == 0 && len(current.Allow) == 0 && len(current.Disallow) == 0 && current.CrawlDelay == nil {
			return
		}
		groups = append(groups, current)
		current = Group{}
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "user-agent", "useragent":
			if len(current.Agents) > 0 && (len(current.Allow) > 0 || len(current.Disallow) > 0 || current.CrawlDelay != nil) {
				flush()
			}
			current.Agents = append(current.Agents, strings.ToLower(val))
		case "allow":
			current.Allow = append(current.Allow, val)
		case "disallow":
			current.Disallow = append(current.Disallow, val)
		case "crawl-delay", "crawldelay":
			if d, err := time.ParseDuration(val + "s"); err == nil && val != "" {
				current.CrawlDelay = &d
			}
		}
	}
	flush()
	return Rules{Groups: groups}
}

// IsAllowed reports whether path (query included) may be fetched by
// userAgent. The most specific agent group applies; within it the longest
// matching pattern wins, Allow winning ties. No match means allowed.
func (r Rules) IsAllowed(userAgent string, path string) bool {
	idx := r.selectGroupIndex(userAgent)
	if idx < 0 {
		return true
	}
	grp := r.Groups[idx]

	bestScore := -1
	bestAllow := true
	evaluate := func(patterns []string, allow bool) {
		for _, p := range patterns {
			if p == "" || !patternMatches(p, path) {
				continue
			}
			score := patternSpecificity(p)
			if score > bestScore || (score == bestScore && allow && !bestAllow) {
				bestScore = score
				bestAllow = allow
			}
		}
	}
	evaluate(grp.Disallow, false)
	evaluate(grp.Allow, true)
	return bestScore == -1 || bestAllow
}

// CrawlDelayFor returns the Crawl-delay of the group matching userAgent, or nil.
func (r Rules) CrawlDelayFor(userAgent string) *time.Duration {
	idx := r.selectGroupIndex(userAgent)
	if idx < 0 {
		return nil
	}
	return r.Groups[idx].CrawlDelay
}

// selectGroupIndex prefers the longest agent token contained in userAgent;
// "*" matches anything but loses to every named token.
func (r Rules) selectGroupIndex(userAgent string) int {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx, bestScore := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			token := strings.TrimSpace(a)
			var score int
			switch {
			case token == "":
				continue
			case token == "*":
				score = 0
			case strings.Contains(ua, token):
				score = len(token)
			default:
				continue
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
	}
	return bestIdx
}

// patternMatches anchors pattern at the start of path. '*' matches any run
// and a trailing '$' anchors the end.
func patternMatches(pattern, path string) bool {
	anchorEnd := strings.HasSuffix(pattern, "$")
	p := strings.TrimSuffix(pattern, "$")
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(p, "*") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	return regexp.MustCompile(b.String()).MatchString(path)
}

func patternSpecificity(pattern string) int {
	return len(strings.ReplaceAll(strings.TrimSuffix(pattern, "$"), "*", ""))
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isLocalOrPrivateHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "localhost" || h == "localhost.localdomain" || h == "::1" || h == "[::1]" {
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
	}
	return false
}
