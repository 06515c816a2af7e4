package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Source   string `yaml:"source" json:"source"`
	Output   string `yaml:"output" json:"output"`
	Catalog  string `yaml:"catalog" json:"catalog"`
	Manifest bool   `yaml:"manifest" json:"manifest"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
		Explain bool   `yaml:"explain" json:"explain"`
		Shuffle bool   `yaml:"shuffle" json:"shuffle"`
	} `yaml:"llm" json:"llm"`

	Searx struct {
		URL string `yaml:"url" json:"url"`
		Key string `yaml:"key" json:"key"`
		UA  string `yaml:"ua" json:"ua"`
	} `yaml:"searx" json:"searx"`

	Search struct {
		File string `yaml:"file" json:"file"`
	} `yaml:"search" json:"search"`

	Domains struct {
		Allow []string `yaml:"allow" json:"allow"`
		Deny  []string `yaml:"deny" json:"deny"`
	} `yaml:"domains" json:"domains"`

	Enrich struct {
		Delay Duration `yaml:"delay" json:"delay"`
		Limit int      `yaml:"limit" json:"limit"`
	} `yaml:"enrich" json:"enrich"`

	HTTP struct {
		UserAgent    string `yaml:"userAgent" json:"userAgent"`
		MaxBytes     int64  `yaml:"maxBytes" json:"maxBytes"`
		InsecureTLS  bool   `yaml:"insecureTLS" json:"insecureTLS"`
		IgnoreRobots bool   `yaml:"ignoreRobots" json:"ignoreRobots"`
	} `yaml:"http" json:"http"`

	Serve struct {
		Addr      string `yaml:"addr" json:"addr"`
		ResultsDB string `yaml:"resultsDB" json:"resultsDB"`
	} `yaml:"serve" json:"serve"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration accepts "90s"-style strings or integer nanoseconds in config files.
type Duration time.Duration

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var ns int64
	if n.Tag == "!!int" && n.Decode(&ns) == nil {
		*d = Duration(ns)
		return nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var ns int64
	if json.Unmarshal(b, &ns) == nil {
		*d = Duration(ns)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for fields that are unset
// or still at their flag default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	replace := func(dst *string, def, v string) {
		if (*dst == "" || *dst == def) && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	enable := func(dst *bool, v bool) {
		if !*dst && v {
			*dst = true
		}
	}

	replace(&cfg.Source, "", fc.Source)
	replace(&cfg.Output, DefaultOutput, fc.Output)
	replace(&cfg.Catalog, DefaultCatalog, fc.Catalog)
	enable(&cfg.Manifest, fc.Manifest)

	replace(&cfg.LLMBaseURL, "", fc.LLM.BaseURL)
	replace(&cfg.LLMModel, DefaultModel, fc.LLM.Model)
	replace(&cfg.LLMAPIKey, "", fc.LLM.APIKey)
	enable(&cfg.Explain, fc.LLM.Explain)
	enable(&cfg.Shuffle, fc.LLM.Shuffle)

	replace(&cfg.SearxURL, "", fc.Searx.URL)
	replace(&cfg.SearxKey, "", fc.Searx.Key)
	replace(&cfg.SearxUA, DefaultUserAgent, fc.Searx.UA)
	replace(&cfg.FileSearchPath, "", fc.Search.File)
	if len(cfg.DomainAllow) == 0 && len(fc.Domains.Allow) > 0 {
		cfg.DomainAllow = append([]string{}, fc.Domains.Allow...)
	}
	if len(cfg.DomainDeny) == 0 && len(fc.Domains.Deny) > 0 {
		cfg.DomainDeny = append([]string{}, fc.Domains.Deny...)
	}

	if (cfg.EnrichDelay == 0 || cfg.EnrichDelay == DefaultEnrichDelay) && fc.Enrich.Delay > 0 {
		cfg.EnrichDelay = time.Duration(fc.Enrich.Delay)
	}
	if cfg.EnrichLimit == 0 && fc.Enrich.Limit > 0 {
		cfg.EnrichLimit = fc.Enrich.Limit
	}

	replace(&cfg.UserAgent, DefaultUserAgent, fc.HTTP.UserAgent)
	if cfg.MaxBytes == 0 && fc.HTTP.MaxBytes > 0 {
		cfg.MaxBytes = fc.HTTP.MaxBytes
	}
	enable(&cfg.InsecureTLS, fc.HTTP.InsecureTLS)
	enable(&cfg.IgnoreRobots, fc.HTTP.IgnoreRobots)
	replace(&cfg.ServeAddr, DefaultServeAddr, fc.Serve.Addr)
	replace(&cfg.ResultsDB, "", fc.Serve.ResultsDB)

	replace(&cfg.CacheDir, DefaultCacheDir, fc.Cache.Dir)
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	enable(&cfg.CacheClear, fc.Cache.Clear)
	enable(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)
	enable(&cfg.Verbose, fc.Verbose)
}

// Operation names what a command is about to do; ValidateConfig checks only
// the settings that operation needs.
type Operation string

const (
	OpExtract   Operation = "extract"
	OpEnrich    Operation = "enrich"
	OpTokens    Operation = "tokens"
	OpRecommend Operation = "recommend"
	OpList      Operation = "list"
	OpServe     Operation = "serve"
)

// ValidateConfig performs minimal validation of the settings op requires.
func ValidateConfig(cfg Config, op Operation) error {
	if cfg.EnrichLimit < 0 || cfg.MaxBytes < 0 || cfg.EnrichDelay < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	switch op {
	case OpExtract:
		if strings.TrimSpace(cfg.Output) == "" {
			return errors.New("config: output path is required")
		}
	case OpEnrich:
		if strings.TrimSpace(cfg.Catalog) == "" {
			return errors.New("config: catalog path is required")
		}
		if strings.TrimSpace(cfg.SearxURL) == "" && strings.TrimSpace(cfg.FileSearchPath) == "" {
			return errors.New("config: searx.url or search.file is required (or set SEARX_URL)")
		}
	case OpRecommend:
		if strings.TrimSpace(cfg.Catalog) == "" {
			return errors.New("config: catalog path is required")
		}
		if strings.TrimSpace(cfg.LLMModel) == "" {
			return errors.New("config: llm.model is required (or set LLM_MODEL)")
		}
	case OpTokens, OpList, OpServe:
		if strings.TrimSpace(cfg.Catalog) == "" {
			return errors.New("config: catalog path is required")
		}
		if op == OpServe && strings.TrimSpace(cfg.ServeAddr) == "" {
			return errors.New("config: serve address is required")
		}
	default:
		return fmt.Errorf("config: unknown operation %q", op)
	}
	return nil
}
