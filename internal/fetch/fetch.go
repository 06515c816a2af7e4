// Package fetch acquires the book-list page, either from disk or over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/bookmatch/internal/cache"
)

// DefaultSource is the list page fetched when no source is configured.
const DefaultSource = "https://thegreatestbooks.org/"

// ErrTooLarge is returned when a body exceeds Client.MaxBytes.
var ErrTooLarge = errors.New("response body too large")

// StatusError reports a non-2xx, non-304 response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	if e.Code >= 500 {
		return fmt.Sprintf("server error: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// Client wraps http.Client with timeouts, bounded retry on transient
// errors and optional on-disk revalidation.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Cache, when set, stores bodies and revalidates with ETag/Last-Modified.
	Cache *cache.PageCache
	// BypassCache skips conditional headers but still saves the fresh response.
	BypassCache bool
	// MaxBytes caps the body size. Zero means unlimited.
	MaxBytes int64

	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests for this client. Zero means unlimited.
	MaxConcurrent int
	// Robots, when set, is consulted once before each Get.
	Robots Gate

	limiter     chan struct{}
	limiterOnce sync.Once
}

type response struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	status       int
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Gate decides whether a URL may be fetched at all.
type Gate interface {
	Check(ctx context.Context, rawURL string) error
}

// Get fetches rawURL and returns its body and content type.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.Robots != nil {
		if err := c.Robots.Check(ctx, rawURL); err != nil {
			return nil, "", err
		}
	}
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.Meta(ctx, rawURL); err == nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil && resp.status == http.StatusNotModified && c.Cache != nil {
			if body, ct, ok := c.fromCache(ctx, rawURL, resp.contentType); ok {
				return body, ct, nil
			}
			// validators pointed at a body we no longer have
			resp, err = c.tryOnce(ctx, rawURL, "", "")
		}
		if err == nil {
			if c.Cache != nil && resp.status == http.StatusOK {
				_ = c.Cache.Save(ctx, rawURL, resp.contentType, resp.etag, resp.lastModified, resp.body)
			}
			return resp.body, resp.contentType, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			return nil, "", err
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, "", lastErr
}

func (c *Client) fromCache(ctx context.Context, rawURL, contentType string) ([]byte, string, bool) {
	body, err := c.Cache.Body(ctx, rawURL)
	if err != nil {
		return nil, "", false
	}
	if meta, err := c.Cache.Meta(ctx, rawURL); err == nil && meta.ContentType != "" {
		contentType = meta.ContentType
	}
	return body, contentType, true
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (response, error) {
	c.acquire()
	defer c.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return response{}, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	out := response{
		contentType:  resp.Header.Get("Content-Type"),
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		status:       resp.StatusCode,
	}
	if resp.StatusCode == http.StatusNotModified {
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response{}, &StatusError{Code: resp.StatusCode}
	}
	if !isAllowedHTMLContentType(out.contentType) {
		return response{}, fmt.Errorf("unsupported content type: %s", out.contentType)
	}
	var r io.Reader = resp.Body
	if c.MaxBytes > 0 {
		r = io.LimitReader(resp.Body, c.MaxBytes+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return response{}, fmt.Errorf("read body: %w", err)
	}
	if c.MaxBytes > 0 && int64(len(b)) > c.MaxBytes {
		return response{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.MaxBytes)
	}
	out.body = b
	return out, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// IsURL reports whether src names an http(s) resource rather than a file.
func IsURL(src string) bool {
	u, err := url.Parse(strings.TrimSpace(src))
	return err == nil && isHTTPScheme(u) && u.Host != ""
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}

// ReadSource returns the document named by src: an http(s) URL is fetched
// with client, anything else is read from disk. An empty src means
// DefaultSource.
func ReadSource(ctx context.Context, client *Client, src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		src = DefaultSource
	}
	if IsURL(src) {
		if client == nil {
			client = &Client{MaxAttempts: 2, PerRequestTimeout: 30 * time.Second}
		}
		body, _, err := client.Get(ctx, src)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", src, err)
		}
		return string(body), nil
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src, err)
	}
	if client != nil && client.MaxBytes > 0 && int64(len(b)) > client.MaxBytes {
		return "", fmt.Errorf("read %s: %w", src, ErrTooLarge)
	}
	return string(b), nil
}
