package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPageCache_SaveLoad(t *testing.T) {
	c := &PageCache{Dir: t.TempDir()}
	ctx := context.Background()
	url := "https://thegreatestbooks.org/"
	if err := c.Save(ctx, url, "text/html", `"v1"`, "Mon, 02 Jan 2006 15:04:05 GMT", []byte("<ul></ul>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := c.Meta(ctx, url)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.URL != url || meta.ETag != `"v1"` || meta.Size != 9 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	body, err := c.Body(ctx, url)
	if err != nil || string(body) != "<ul></ul>" {
		t.Fatalf("body = %q, %v", body, err)
	}
	if _, err := c.Meta(ctx, "https://other.example/"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist for unknown url, got %v", err)
	}
}

func TestPageCache_NoDir(t *testing.T) {
	var c *PageCache
	if _, err := c.Meta(context.Background(), "x"); !errors.Is(err, ErrNoDir) {
		t.Fatalf("nil cache: %v", err)
	}
	if err := (&PageCache{}).Save(context.Background(), "x", "", "", "", nil); !errors.Is(err, ErrNoDir) {
		t.Fatalf("empty dir: %v", err)
	}
}

func TestLLMCache_SaveGet(t *testing.T) {
	c := &LLMCache{Dir: t.TempDir()}
	key := KeyFrom("gpt-4.1", "prompt")
	if key == KeyFrom("gpt-4.1-mini", "prompt") {
		t.Fatal("model must be part of the key")
	}
	if _, ok, err := c.Get(context.Background(), key); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	data := []byte(`{"likelyToEnjoy":[]}`)
	if err := c.Save(context.Background(), key, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(context.Background(), key)
	if err != nil || !ok || string(got) != string(data) {
		t.Fatalf("get = %q ok=%v err=%v", got, ok, err)
	}
}

func TestStrictPerms(t *testing.T) {
	base := t.TempDir()
	llmDir := filepath.Join(base, "llm")
	lc := &LLMCache{Dir: llmDir, StrictPerms: true}
	key := KeyFrom("m", "p")
	if err := lc.Save(context.Background(), key, []byte("{}")); err != nil {
		t.Fatalf("save: %v", err)
	}
	pageDir := filepath.Join(base, "pages")
	pc := &PageCache{Dir: pageDir, StrictPerms: true}
	if err := pc.Save(context.Background(), "https://e.x/", "text/html", "", "", []byte("x")); err != nil {
		t.Fatalf("save page: %v", err)
	}
	for _, dir := range []string{llmDir, pageDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if got := info.Mode() & 0o777; got != 0o700 {
			t.Fatalf("%s mode = %o, want 0700", dir, got)
		}
	}
	files := []string{
		filepath.Join(llmDir, key+".json"),
		filepath.Join(pageDir, digest("https://e.x/")+".body"),
		filepath.Join(pageDir, digest("https://e.x/")+".meta.json"),
	}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			t.Fatalf("stat %s: %v", f, err)
		}
		if got := info.Mode() & 0o777; got != 0o600 {
			t.Fatalf("%s mode = %o, want 0600", f, got)
		}
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	pc := &PageCache{Dir: dir}
	lc := &LLMCache{Dir: dir}

	if err := pc.Save(ctx, "https://fresh.example/", "text/html", "", "", []byte("fresh")); err != nil {
		t.Fatal(err)
	}
	old := PageEntry{URL: "https://old.example/", SavedAt: time.Now().Add(-48 * time.Hour)}
	b, _ := json.Marshal(old)
	oldKey := digest(old.URL)
	if err := os.WriteFile(filepath.Join(dir, oldKey+".meta.json"), b, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, oldKey+".body"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	freshKey := KeyFrom("m", "fresh")
	staleKey := KeyFrom("m", "stale")
	if err := lc.Save(ctx, freshKey, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if err := lc.Save(ctx, staleKey, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, staleKey+".json"), past, past); err != nil {
		t.Fatal(err)
	}

	got, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if got.Pages != 1 || got.Responses != 1 {
		t.Fatalf("purged = %+v, want 1 page and 1 response", got)
	}
	if _, err := os.Stat(filepath.Join(dir, oldKey+".body")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("old body should be gone: %v", err)
	}
	if _, err := pc.Body(ctx, "https://fresh.example/"); err != nil {
		t.Fatalf("fresh page should survive: %v", err)
	}
	if _, ok, _ := lc.Get(ctx, freshKey); !ok {
		t.Fatal("fresh response should survive")
	}

	if got, err := PurgeByAge(filepath.Join(dir, "missing"), time.Hour); err != nil || got != (Purged{}) {
		t.Fatalf("missing dir: %+v %v", got, err)
	}
}

func TestClearDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "c")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries err=%v", len(entries), err)
	}
	if err := ClearDir("  "); err == nil {
		t.Fatal("expected error for blank dir")
	}
}
