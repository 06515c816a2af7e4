// Package app wires configuration to the extraction, enrichment,
// recommendation and serving pipelines used by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/bookmatch/internal/books"
	"github.com/hyperifyio/bookmatch/internal/budget"
	"github.com/hyperifyio/bookmatch/internal/cache"
	"github.com/hyperifyio/bookmatch/internal/enrich"
	"github.com/hyperifyio/bookmatch/internal/extract"
	"github.com/hyperifyio/bookmatch/internal/fetch"
	"github.com/hyperifyio/bookmatch/internal/llm"
	"github.com/hyperifyio/bookmatch/internal/prompt"
	"github.com/hyperifyio/bookmatch/internal/recommend"
	"github.com/hyperifyio/bookmatch/internal/robots"
	"github.com/hyperifyio/bookmatch/internal/search"
	"github.com/hyperifyio/bookmatch/internal/server"
	"github.com/hyperifyio/bookmatch/internal/store"
)

// ErrNoRecords is returned when extraction produced zero records. Per the exit
// code policy the CLI maps it to exit status 2.
var ErrNoRecords = errors.New("no records extracted")

type App struct {
	cfg       Config
	logger    zerolog.Logger
	http      *http.Client
	pages     *cache.PageCache
	responses *cache.LLMCache
	robots    *robots.Manager
	extractor extract.Extractor
	now       func() time.Time
}

// New prepares caches and the shared HTTP client. It does not touch the network.
func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{
		cfg:       cfg,
		logger:    log.Logger,
		http:      NewHTTPClient(cfg.InsecureTLS),
		extractor: extract.BookListExtractor{},
		now:       time.Now,
	}
	if dir := strings.TrimSpace(cfg.CacheDir); dir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(dir); err != nil {
				return nil, fmt.Errorf("clear cache: %w", err)
			}
		}
		if cfg.CacheMaxAge > 0 {
			// Purge failures never block a run.
			p, err := cache.PurgeByAge(dir, cfg.CacheMaxAge)
			if err != nil {
				a.logger.Warn().Err(err).Msg("cache purge failed")
			} else if p.Pages+p.Responses > 0 {
				a.logger.Info().Int("pages", p.Pages).Int("responses", p.Responses).Msg("cache purged")
			}
		}
		a.pages = &cache.PageCache{Dir: filepath.Join(dir, "pages"), StrictPerms: cfg.CacheStrictPerms}
		a.responses = &cache.LLMCache{Dir: filepath.Join(dir, "llm"), StrictPerms: cfg.CacheStrictPerms}
	}
	if !cfg.IgnoreRobots {
		a.robots = &robots.Manager{
			HTTPClient:        a.http,
			Cache:             a.pages,
			UserAgent:         cfg.UserAgent,
			AllowPrivateHosts: true,
		}
	}
	return a, nil
}

func (a *App) Close() {}

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

func (a *App) fetcher() *fetch.Client {
	return &fetch.Client{
		HTTPClient:        a.http,
		UserAgent:         a.cfg.UserAgent,
		MaxAttempts:       3,
		PerRequestTimeout: 30 * time.Second,
		Cache:             a.pages,
		MaxBytes:          a.cfg.MaxBytes,
		Robots:            a.gate(),
	}
}

// gate keeps a nil manager from becoming a non-nil fetch.Gate.
func (a *App) gate() fetch.Gate {
	if a.robots == nil {
		return nil
	}
	return a.robots
}

// Extract reads the source page, assembles records, logs the diagnostics and
// saves the catalog to cfg.Output. With zero records nothing is written and
// ErrNoRecords is returned alongside the result.
func (a *App) Extract(ctx context.Context) (extract.Result, error) {
	src := strings.TrimSpace(a.cfg.Source)
	if src == "" {
		src = fetch.DefaultSource
	}
	doc, err := fetch.ReadSource(ctx, a.fetcher(), src)
	if err != nil {
		return extract.Result{}, err
	}
	res := a.extractor.Extract(doc)
	extract.LogDiagnostics(a.logger, res)
	if len(res.Records) == 0 {
		return res, ErrNoRecords
	}
	if err := store.Save(ctx, a.cfg.Output, res.Records); err != nil {
		return res, fmt.Errorf("save %s: %w", a.cfg.Output, err)
	}
	a.logger.Info().Str("output", a.cfg.Output).Int("records", len(res.Records)).Msg("catalog written")
	if a.cfg.Manifest {
		m := store.NewManifest(src, []byte(doc), res, a.cfg.Output, a.now())
		m.Version = BuildVersion
		path := store.SidecarPath(a.cfg.Output)
		if err := store.WriteManifest(path, m); err != nil {
			return res, fmt.Errorf("write manifest: %w", err)
		}
		a.logger.Debug().Str("manifest", path).Msg("manifest written")
	}
	return res, nil
}

// Catalog loads the catalog named by cfg.Catalog.
func (a *App) Catalog(ctx context.Context) ([]books.Record, error) {
	records, err := store.Load(ctx, a.cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return records, nil
}

// SearchProvider returns SearxNG when configured, else the offline file provider.
func (a *App) SearchProvider() (search.Provider, error) {
	policy := search.DomainPolicy{Allowlist: a.cfg.DomainAllow, Denylist: a.cfg.DomainDeny}
	if strings.TrimSpace(a.cfg.SearxURL) != "" {
		return &search.SearxNG{
			BaseURL:    a.cfg.SearxURL,
			APIKey:     a.cfg.SearxKey,
			HTTPClient: a.http,
			UserAgent:  a.cfg.SearxUA,
			Policy:     policy,
		}, nil
	}
	if strings.TrimSpace(a.cfg.FileSearchPath) != "" {
		return &search.FileProvider{Path: a.cfg.FileSearchPath, Policy: policy}, nil
	}
	return nil, enrich.ErrNoProvider
}

// Enrich adds Goodreads links to the catalog and writes it back in place.
// Progress made before a cancellation is still saved.
func (a *App) Enrich(ctx context.Context) (enrich.Stats, error) {
	records, err := a.Catalog(ctx)
	if err != nil {
		return enrich.Stats{}, err
	}
	provider, err := a.SearchProvider()
	if err != nil {
		return enrich.Stats{}, err
	}
	g := &enrich.Goodreads{
		Provider: provider,
		Delay:    a.cfg.EnrichDelay,
		Limit:    a.cfg.EnrichLimit,
		Logger:   a.logger,
	}
	out, stats, runErr := g.Enrich(ctx, records)
	if stats.Updated > 0 {
		// The caller's ctx may already be cancelled; saving must still happen.
		if err := a.saveLinks(context.WithoutCancel(ctx), records, out); err != nil {
			return stats, fmt.Errorf("save %s: %w", a.cfg.Catalog, err)
		}
	}
	return stats, runErr
}

// saveLinks writes enrichment results back to the catalog. A SQLite catalog
// is updated link by link; other formats are rewritten whole.
func (a *App) saveLinks(ctx context.Context, before, after []books.Record) error {
	if f, _ := store.FormatOf(a.cfg.Catalog); f != store.FormatSQLite {
		return store.Save(ctx, a.cfg.Catalog, after)
	}
	db, err := store.OpenSQLite(a.cfg.Catalog)
	if err != nil {
		return err
	}
	defer db.Close()
	for i, r := range after {
		if i < len(before) && before[i].Links.Goodreads == r.Links.Goodreads {
			continue
		}
		if err := db.SetLink(ctx, r.Rank, books.Goodreads, r.Links.Goodreads); err != nil {
			return err
		}
	}
	return nil
}

// ModelClient returns the OpenAI-compatible client for cfg.
func (a *App) ModelClient() *llm.OpenAIProvider {
	return llm.NewOpenAI(a.cfg.LLMBaseURL, a.cfg.LLMAPIKey, a.http)
}

// Preflight lists models as a best-effort connectivity check.
func (a *App) Preflight(ctx context.Context, client llm.ModelLister) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := client.ListModels(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) == 0 {
		a.logger.Warn().Msg("LLM returned zero models")
		return
	}
	a.logger.Info().Int("count", len(models.Models)).Msg("LLM models available")
}

// Recommender builds a recommender backed by client.
func (a *App) Recommender(client llm.Client) *recommend.Recommender {
	return &recommend.Recommender{
		Client:  client,
		Model:   a.cfg.LLMModel,
		Cache:   a.responses,
		Explain: a.cfg.Explain,
		Shuffle: a.cfg.Shuffle,
		Logger:  a.logger,
	}
}

// Recommend runs one survey against the catalog.
func (a *App) Recommend(ctx context.Context, client llm.Client, survey prompt.Survey) (recommend.Recommendations, error) {
	records, err := a.Catalog(ctx)
	if err != nil {
		return recommend.Recommendations{}, err
	}
	questions := survey.Questions
	if len(questions) == 0 {
		questions = prompt.SampleQuestions()
	}
	return a.Recommender(client).Recommend(ctx, questions, survey.Answers, records)
}

// Tokens estimates the selection prompt for the catalog with the sample survey.
func (a *App) Tokens(ctx context.Context) (budget.Estimate, error) {
	records, err := a.Catalog(ctx)
	if err != nil {
		return budget.Estimate{}, err
	}
	list, err := prompt.BookList(records)
	if err != nil {
		return budget.Estimate{}, err
	}
	responses := prompt.FormatResponses(prompt.SampleQuestions(), prompt.SampleAnswers())
	return budget.EstimatePrompt(a.cfg.LLMModel, prompt.Selection(responses, list), 0), nil
}

// Handler builds the HTTP API over the catalog. client may be nil, in which
// case recommendations answer 503. The returned closer releases the results
// database, if any.
func (a *App) Handler(ctx context.Context, client llm.Client) (http.Handler, func() error, error) {
	records, err := a.Catalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	var closers []func() error
	closer := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	cfg := server.Config{Catalog: records, Results: store.NewMemoryResults(), Logger: a.logger}
	if f, _ := store.FormatOf(a.cfg.Catalog); f == store.FormatSQLite {
		db, err := store.OpenSQLite(a.cfg.Catalog)
		if err != nil {
			return nil, nil, err
		}
		cfg.Lookup = db
		closers = append(closers, db.Close)
	}
	if path := strings.TrimSpace(a.cfg.ResultsDB); path != "" {
		db, err := store.OpenSQLite(path)
		if err != nil {
			_ = closer()
			return nil, nil, err
		}
		cfg.Results = db
		closers = append(closers, db.Close)
	}
	if client != nil {
		cfg.Recommender = a.Recommender(client)
	}
	return server.New(cfg), closer, nil
}

// LoadSurvey reads questions and answers from a YAML or JSON file. A file
// holding only an answers map is accepted too.
func LoadSurvey(path string) (prompt.Survey, error) {
	var s prompt.Survey
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("parse survey: %w", err)
	}
	if len(s.Answers) == 0 && len(s.Questions) == 0 {
		var answers prompt.Answers
		if err := yaml.Unmarshal(b, &answers); err == nil {
			s.Answers = answers
		}
	}
	return s, nil
}
