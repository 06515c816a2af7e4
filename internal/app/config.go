package app

import "time"

// Config holds runtime configuration for every command.
type Config struct {
	// Source is the list page: a local path or an http(s) URL.
	Source string
	// Output is where extract writes the catalog; the extension picks the format.
	Output string
	// Catalog is the catalog read by enrich, tokens, recommend, list and serve.
	Catalog  string
	Manifest bool

	// Search
	SearxURL       string
	SearxKey       string
	SearxUA        string
	FileSearchPath string
	DomainAllow    []string
	DomainDeny     []string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	Explain    bool
	Shuffle    bool

	// Enrichment
	EnrichDelay time.Duration
	EnrichLimit int

	// HTTP
	UserAgent   string
	MaxBytes    int64
	InsecureTLS bool
	// IgnoreRobots skips the robots.txt check for a URL source.
	IgnoreRobots bool
	ServeAddr    string
	// ResultsDB keeps recommendation results in SQLite; empty keeps them in memory.
	ResultsDB string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

// Defaults applied by flags; file config may replace a value still at its default.
const (
	DefaultOutput      = "books.json"
	DefaultCatalog     = "books.json"
	DefaultModel       = "gpt-4.1"
	DefaultCacheDir    = ".bookmatch-cache"
	DefaultServeAddr   = ":8080"
	DefaultEnrichDelay = 2 * time.Second
	DefaultUserAgent   = "bookmatch/1.0 (+https://github.com/hyperifyio/bookmatch)"
)

// DefaultConfig returns a Config with every flag default set.
func DefaultConfig() Config {
	return Config{
		Output:      DefaultOutput,
		Catalog:     DefaultCatalog,
		LLMModel:    DefaultModel,
		CacheDir:    DefaultCacheDir,
		ServeAddr:   DefaultServeAddr,
		EnrichDelay: DefaultEnrichDelay,
		UserAgent:   DefaultUserAgent,
		SearxUA:     DefaultUserAgent,
	}
}
