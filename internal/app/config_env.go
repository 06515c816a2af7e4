package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.Source, "BOOKMATCH_SOURCE")
	setString(&cfg.Catalog, "BOOKMATCH_CATALOG")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")
	// Support both SEARX_URL and SEARXNG_URL; prefer SEARX_URL if set
	setString(&cfg.SearxURL, "SEARX_URL", "SEARXNG_URL")
	setString(&cfg.SearxKey, "SEARX_KEY", "SEARXNG_KEY")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.ResultsDB, "RESULTS_DB")

	if cfg.CacheMaxAge == 0 {
		if d, ok := envDuration("CACHE_MAX_AGE"); ok {
			cfg.CacheMaxAge = d
		}
	}
	if cfg.EnrichDelay == 0 {
		if d, ok := envDuration("ENRICH_DELAY"); ok {
			cfg.EnrichDelay = d
		}
	}
	if cfg.EnrichLimit == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("ENRICH_LIMIT"))); err == nil && n > 0 {
			cfg.EnrichLimit = n
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if v, ok := envBool(envKey); ok && v {
			*dst = true
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.Explain, "EXPLAIN")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.InsecureTLS, "INSECURE_TLS")
	setBool(&cfg.IgnoreRobots, "IGNORE_ROBOTS")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. Env then beats a config file while
// flags applied afterwards stay highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.Source, "BOOKMATCH_SOURCE")
	override(&cfg.Catalog, "BOOKMATCH_CATALOG")
	override(&cfg.LLMBaseURL, "LLM_BASE_URL")
	override(&cfg.LLMModel, "LLM_MODEL")
	override(&cfg.LLMAPIKey, "LLM_API_KEY")
	override(&cfg.SearxURL, "SEARX_URL")
	override(&cfg.SearxURL, "SEARXNG_URL")
	override(&cfg.SearxKey, "SEARX_KEY")
	override(&cfg.SearxKey, "SEARXNG_KEY")
	override(&cfg.CacheDir, "CACHE_DIR")
	override(&cfg.ResultsDB, "RESULTS_DB")

	if d, ok := envDuration("CACHE_MAX_AGE"); ok {
		cfg.CacheMaxAge = d
	}
	if d, ok := envDuration("ENRICH_DELAY"); ok {
		cfg.EnrichDelay = d
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("ENRICH_LIMIT"))); err == nil && n > 0 {
		cfg.EnrichLimit = n
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if v, ok := envBool(envKey); ok {
			*dst = v
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.Explain, "EXPLAIN")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.InsecureTLS, "INSECURE_TLS")
	setBool(&cfg.IgnoreRobots, "IGNORE_ROBOTS")
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envBool(key string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
