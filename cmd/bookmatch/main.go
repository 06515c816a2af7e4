// Command bookmatch extracts a ranked book catalog from a list page, enriches
// it with Goodreads links, and recommends books from it.
package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperifyio/bookmatch/internal/app"
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitNoRecords = 2
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	err := newRootCmd().ExecuteContext(context.Background())
	code := exitCode(err)
	if err != nil {
		log.Error().Err(err).Int("exit", code).Msg("bookmatch failed")
	}
	os.Exit(code)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, app.ErrNoRecords):
		return exitNoRecords
	}
	return exitError
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookmatch",
		Short:         "Book-list extraction, enrichment and recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			files, _ := cmd.Flags().GetStringSlice("env-file")
			if err := app.LoadEnvFiles(files...); err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			if v, ok := os.LookupEnv("VERBOSE"); ok && !cmd.Flags().Changed("verbose") {
				verbose = isTruthy(v)
			}
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "YAML or JSON config file")
	pf.StringSlice("env-file", []string{".env"}, "dotenv files to load before reading the environment")
	pf.BoolP("verbose", "v", false, "Verbose logging")
	pf.String("cache.dir", app.DefaultCacheDir, "Cache directory path")
	pf.Duration("cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	pf.Bool("cache.clear", false, "Clear cache directory before run")
	pf.Bool("cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	pf.String("user-agent", app.DefaultUserAgent, "User-Agent for page fetches")
	pf.Bool("insecure-tls", false, "Skip TLS certificate checks (self-signed local services)")
	pf.Bool("ignore-robots", false, "Fetch a URL source even when robots.txt disallows it")

	root.AddCommand(
		newExtractCmd(),
		newEnrichCmd(),
		newTokensCmd(),
		newRecommendCmd(),
		newListCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// flagSetters copy explicitly set flags into the config. Flags win over env,
// which wins over the config file, which wins over defaults.
var flagSetters = map[string]func(fs *pflag.FlagSet, name string, cfg *app.Config){
	"source":            func(fs *pflag.FlagSet, n string, c *app.Config) { c.Source, _ = fs.GetString(n) },
	"output":            func(fs *pflag.FlagSet, n string, c *app.Config) { c.Output, _ = fs.GetString(n) },
	"catalog":           func(fs *pflag.FlagSet, n string, c *app.Config) { c.Catalog, _ = fs.GetString(n) },
	"manifest":          func(fs *pflag.FlagSet, n string, c *app.Config) { c.Manifest, _ = fs.GetBool(n) },
	"searx.url":         func(fs *pflag.FlagSet, n string, c *app.Config) { c.SearxURL, _ = fs.GetString(n) },
	"searx.key":         func(fs *pflag.FlagSet, n string, c *app.Config) { c.SearxKey, _ = fs.GetString(n) },
	"searx.ua":          func(fs *pflag.FlagSet, n string, c *app.Config) { c.SearxUA, _ = fs.GetString(n) },
	"search.file":       func(fs *pflag.FlagSet, n string, c *app.Config) { c.FileSearchPath, _ = fs.GetString(n) },
	"domains.allow":     func(fs *pflag.FlagSet, n string, c *app.Config) { c.DomainAllow, _ = fs.GetStringSlice(n) },
	"domains.deny":      func(fs *pflag.FlagSet, n string, c *app.Config) { c.DomainDeny, _ = fs.GetStringSlice(n) },
	"llm.base":          func(fs *pflag.FlagSet, n string, c *app.Config) { c.LLMBaseURL, _ = fs.GetString(n) },
	"llm.model":         func(fs *pflag.FlagSet, n string, c *app.Config) { c.LLMModel, _ = fs.GetString(n) },
	"llm.key":           func(fs *pflag.FlagSet, n string, c *app.Config) { c.LLMAPIKey, _ = fs.GetString(n) },
	"explain":           func(fs *pflag.FlagSet, n string, c *app.Config) { c.Explain, _ = fs.GetBool(n) },
	"shuffle":           func(fs *pflag.FlagSet, n string, c *app.Config) { c.Shuffle, _ = fs.GetBool(n) },
	"delay":             func(fs *pflag.FlagSet, n string, c *app.Config) { c.EnrichDelay, _ = fs.GetDuration(n) },
	"limit":             func(fs *pflag.FlagSet, n string, c *app.Config) { c.EnrichLimit, _ = fs.GetInt(n) },
	"max-bytes":         func(fs *pflag.FlagSet, n string, c *app.Config) { c.MaxBytes, _ = fs.GetInt64(n) },
	"addr":              func(fs *pflag.FlagSet, n string, c *app.Config) { c.ServeAddr, _ = fs.GetString(n) },
	"results.db":        func(fs *pflag.FlagSet, n string, c *app.Config) { c.ResultsDB, _ = fs.GetString(n) },
	"cache.dir":         func(fs *pflag.FlagSet, n string, c *app.Config) { c.CacheDir, _ = fs.GetString(n) },
	"cache.maxAge":      func(fs *pflag.FlagSet, n string, c *app.Config) { c.CacheMaxAge, _ = fs.GetDuration(n) },
	"cache.clear":       func(fs *pflag.FlagSet, n string, c *app.Config) { c.CacheClear, _ = fs.GetBool(n) },
	"cache.strictPerms": func(fs *pflag.FlagSet, n string, c *app.Config) { c.CacheStrictPerms, _ = fs.GetBool(n) },
	"user-agent":        func(fs *pflag.FlagSet, n string, c *app.Config) { c.UserAgent, _ = fs.GetString(n) },
	"insecure-tls":      func(fs *pflag.FlagSet, n string, c *app.Config) { c.InsecureTLS, _ = fs.GetBool(n) },
	"ignore-robots":     func(fs *pflag.FlagSet, n string, c *app.Config) { c.IgnoreRobots, _ = fs.GetBool(n) },
	"verbose":           func(fs *pflag.FlagSet, n string, c *app.Config) { c.Verbose, _ = fs.GetBool(n) },
}

// resolveConfig builds the effective config for cmd and validates it for op.
func resolveConfig(cmd *cobra.Command, op app.Operation) (app.Config, error) {
	cfg := app.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); strings.TrimSpace(path) != "" {
		fc, err := app.LoadConfigFile(path)
		if err != nil {
			return cfg, err
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	fs := cmd.Flags()
	for name, set := range flagSetters {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			set(fs, name, &cfg)
		}
	}
	return cfg, app.ValidateConfig(cfg, op)
}

// newApp resolves the config and builds the app for op.
func newApp(cmd *cobra.Command, op app.Operation) (*app.App, error) {
	cfg, err := resolveConfig(cmd, op)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg)
}
