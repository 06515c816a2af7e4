package robots

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperifyio/bookmatch/internal/cache"
)

const testUA = "bookmatch-test/1.0"

func TestManager_FetchOnceThenRevalidateWithETag(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	const etag = `W/"v1"`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	m := &Manager{
		HTTPClient:        srv.Client(),
		Cache:             &cache.PageCache{Dir: t.TempDir()},
		UserAgent:         testUA,
		EntryExpiry:       time.Hour,
		AllowPrivateHosts: true,
	}
	u := srv.URL + "/robots.txt"

	rules, src, err := m.Get(ctx, u)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if src != SourceNetwork || len(rules.Groups) != 1 || rules.Groups[0].Disallow[0] != "/private" {
		t.Fatalf("unexpected first result: src=%v rules=%+v", src, rules)
	}
	if _, src, _ = m.Get(ctx, u); src != SourceMemory {
		t.Fatalf("second get should come from memory, got %v", src)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("hits = %d, want 1", n)
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	rules, src, err = m.Get(ctx, u)
	if err != nil {
		t.Fatalf("third get: %v", err)
	}
	if src != SourceCache304 || rules.Groups[0].Disallow[0] != "/private" {
		t.Fatalf("revalidation: src=%v rules=%+v", src, rules)
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("hits = %d, want 2", n)
	}
}

func TestManager_MissingRobotsAllows(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	m := &Manager{HTTPClient: srv.Client(), UserAgent: testUA, AllowPrivateHosts: true}
	rules, _, err := m.Get(context.Background(), srv.URL+"/robots.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rules.IsAllowed(testUA, "/any/path") {
		t.Fatal("a missing robots.txt should allow everything")
	}
}

func TestManager_ServerErrorDisallowsTemporarily(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	m := &Manager{HTTPClient: srv.Client(), UserAgent: testUA, EntryExpiry: time.Minute, AllowPrivateHosts: true}
	u := srv.URL + "/robots.txt"
	rules, _, err := m.Get(context.Background(), u)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rules.IsAllowed(testUA, "/books") {
		t.Fatal("5xx should disallow until expiry")
	}
	if _, src, _ := m.Get(context.Background(), u); src != SourceMemory {
		t.Fatalf("expected memory reuse, got %v", src)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("hits = %d, want 1", n)
	}
}

func TestManager_TimeoutDisallowsTemporarily(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := *srv.Client()
	client.Timeout = 50 * time.Millisecond
	m := &Manager{HTTPClient: &client, UserAgent: testUA, AllowPrivateHosts: true}
	rules, _, err := m.Get(context.Background(), srv.URL+"/robots.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rules.IsAllowed(testUA, "/") {
		t.Fatal("timeout should disallow")
	}
}

func TestManager_RejectsPrivateHosts(t *testing.T) {
	m := &Manager{UserAgent: testUA}
	if _, _, err := m.Get(context.Background(), "http://127.0.0.1:1/robots.txt"); err == nil {
		t.Fatal("expected private host to be rejected")
	}
	if _, _, err := m.Get(context.Background(), "ftp://example.com/robots.txt"); err == nil {
		t.Fatal("expected unsupported scheme error")
	}
}

func TestManager_Check(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: bookmatch\nDisallow: /lists/private\n"))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	m := &Manager{HTTPClient: srv.Client(), UserAgent: testUA, AllowPrivateHosts: true}
	ctx := context.Background()
	if err := m.Check(ctx, srv.URL+"/lists/best-books"); err != nil {
		t.Fatalf("public list: %v", err)
	}
	if err := m.Check(ctx, srv.URL+"/lists/private?page=2"); !errors.Is(err, ErrDisallowed) {
		t.Fatalf("private list err = %v, want ErrDisallowed", err)
	}
	if err := m.Check(ctx, "testdata/booklist.html"); err != nil {
		t.Fatalf("non-http source should pass: %v", err)
	}
}

func TestManager_CheckHonorsCrawlDelay(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nCrawl-delay: 0.2\n"))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	m := &Manager{HTTPClient: srv.Client(), UserAgent: testUA, EntryExpiry: time.Hour, AllowPrivateHosts: true}
	ctx := context.Background()
	start := time.Now()
	if err := m.Check(ctx, srv.URL+"/lists/1"); err != nil {
		t.Fatalf("first check: %v", err)
	}
	if err := m.Check(ctx, srv.URL+"/lists/2"); err != nil {
		t.Fatalf("second check: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("second check returned after %v, want crawl delay", elapsed)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := m.Check(cancelled, srv.URL+"/lists/3"); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled wait err = %v", err)
	}
}

func TestRules_AgentPrecedenceAndLongestMatch(t *testing.T) {
	t.Parallel()
	rules := parseRobots("User-agent: bookmatch\nDisallow: /private\n\nUser-agent: *\nAllow: /\n")
	if rules.IsAllowed("bookmatch/1.0", "/private/page") {
		t.Fatal("named group should win over wildcard")
	}
	if !rules.IsAllowed("otheragent", "/private/page") {
		t.Fatal("other agents fall back to the wildcard group")
	}

	rules = parseRobots("User-agent: bookmatch\nDisallow: /private\nAllow: /private/public\n")
	if !rules.IsAllowed("bookmatch", "/private/public/info") {
		t.Fatal("longer Allow should win")
	}
	if rules.IsAllowed("bookmatch", "/private/else") {
		t.Fatal("shorter Disallow should still apply elsewhere")
	}
}

func TestRules_WildcardsAnchorsAndComments(t *testing.T) {
	t.Parallel()
	rules := parseRobots("User-agent: bookmatch # us\nDisallow: /*.zip$\nAllow: /downloads/*.zip$\n")
	if rules.IsAllowed("bookmatch", "/foo/file.zip") {
		t.Fatal("*.zip should be disallowed")
	}
	if !rules.IsAllowed("bookmatch", "/downloads/file.zip") {
		t.Fatal("downloads/*.zip should be allowed")
	}
	if !rules.IsAllowed("bookmatch", "/foo/file.zip?x=1") {
		t.Fatal("$ anchors the end of the path")
	}

	rules = parseRobots("User-agent: *\nDisallow: /*?session=\n")
	if rules.IsAllowed("any", "/index.html?session=1") {
		t.Fatal("wildcard should reach into the query")
	}
}

func TestRules_CrawlDelay(t *testing.T) {
	t.Parallel()
	rules := parseRobots("User-agent: bookmatch\nCrawl-delay: 2\n\nUser-agent: *\nCrawl-delay: 7\n")
	if d := rules.CrawlDelayFor("bookmatch"); d == nil || *d != 2*time.Second {
		t.Fatalf("bookmatch delay = %v", d)
	}
	if d := rules.CrawlDelayFor("other"); d == nil || *d != 7*time.Second {
		t.Fatalf("wildcard delay = %v", d)
	}
	if d := (Rules{}).CrawlDelayFor("x"); d != nil {
		t.Fatalf("empty rules delay = %v", d)
	}
}
