// Package app wires all Lexora subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the API until its context ends, and Shutdown tears
// everything down in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithCacheBackend, WithTaggers, ...). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/lexora/internal/cache"
	"github.com/MrWong99/lexora/internal/config"
	"github.com/MrWong99/lexora/internal/difficulty"
	"github.com/MrWong99/lexora/internal/enrich"
	"github.com/MrWong99/lexora/internal/extract"
	"github.com/MrWong99/lexora/internal/health"
	"github.com/MrWong99/lexora/internal/nlp"
	"github.com/MrWong99/lexora/internal/nlp/kagome"
	"github.com/MrWong99/lexora/internal/nlp/prose"
	"github.com/MrWong99/lexora/internal/observe"
	"github.com/MrWong99/lexora/internal/patterns"
	"github.com/MrWong99/lexora/internal/resilience"
	"github.com/MrWong99/lexora/internal/server"
	"github.com/MrWong99/lexora/pkg/provider/llm"
	"github.com/MrWong99/lexora/pkg/store"
	"github.com/MrWong99/lexora/pkg/store/postgres"
	"github.com/MrWong99/lexora/pkg/store/sqlite"
	"github.com/MrWong99/lexora/pkg/types"
)

// drainTimeout bounds how long Run waits for in-flight requests once its
// context ends.
const drainTimeout = 10 * time.Second

// Providers holds the enrichment LLMs. A nil LLM disables enrichment.
// Populated by main.go via the config registry.
type Providers struct {
	LLM llm.Provider

	// LLMFallbacks are tried in order when LLM fails. Their names come from
	// providers.llm_fallbacks in the config, index for index.
	LLMFallbacks []llm.Provider
}

// App owns all subsystem lifetimes and serves the Lexora API.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems, initialised in New and torn down in Shutdown.
	metrics      *observe.Metrics
	logLevel     *slog.LevelVar
	cacheBackend cache.Backend
	store        store.Store
	taggers      []nlp.Tagger
	checkers     []health.Checker
	orch         *extract.Orchestrator
	srv          *server.Server
	metricsH     http.Handler

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a vocabulary store instead of opening one from config.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithCacheBackend injects a cache backend instead of creating one from
// config.
func WithCacheBackend(b cache.Backend) Option {
	return func(a *App) { a.cacheBackend = b }
}

// WithTaggers injects NLP taggers instead of creating kagome and prose.
// Passing none disables NLP discovery.
func WithTaggers(t ...nlp.Tagger) Option {
	return func(a *App) {
		if t == nil {
			t = []nlp.Tagger{}
		}
		a.taggers = t
	}
}

// WithMetrics records on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogLevel lets configuration reloads change the process log level.
func WithLogLevel(v *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = v }
}

// WithMetricsHandler serves h at /metrics instead of promhttp.Handler().
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsH = h }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry); it may be nil.
//
// New performs all initialisation synchronously: store connection and
// migration, cache setup, reference data loading and orchestrator assembly.
// A failure closes whatever was already opened.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.metricsH == nil {
		a.metricsH = promhttp.Handler()
	}

	// ── 1. Store ─────────────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, a.abort(fmt.Errorf("app: init store: %w", err))
	}

	// ── 2. Cache ─────────────────────────────────────────────────────────
	c := a.initCache(ctx)

	// ── 3. Pipeline ──────────────────────────────────────────────────────
	if err := a.initPipeline(c); err != nil {
		return nil, a.abort(fmt.Errorf("app: init pipeline: %w", err))
	}

	// ── 4. Server ────────────────────────────────────────────────────────
	a.initServer()

	return a, nil
}

// abort runs the closers registered so far and returns err.
func (a *App) abort(err error) error {
	for _, closer := range a.closers {
		if cerr := closer(); cerr != nil {
			slog.Warn("closer error during failed start", "err", cerr)
		}
	}
	a.closers = nil
	return err
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initStore opens the configured store or uses the injected one.
func (a *App) initStore(ctx context.Context) error {
	if a.store == nil {
		switch a.cfg.Storage.Backend {
		case config.StoragePostgres:
			st, err := postgres.New(ctx, a.cfg.Storage.DSN)
			if err != nil {
				return err
			}
			a.store = st
			a.closers = append(a.closers, st.Close)
			slog.Info("vocabulary store ready", "backend", "postgres")
		case config.StorageSQLite:
			st, err := sqlite.Open(ctx, a.cfg.Storage.Path)
			if err != nil {
				return err
			}
			a.store = st
			a.closers = append(a.closers, st.Close)
			slog.Info("vocabulary store ready", "backend", "sqlite", "path", a.cfg.Storage.Path)
		default:
			return nil
		}
	}
	a.checkers = append(a.checkers, health.Ping("store", a.store))
	return nil
}

// initCache builds the extraction cache. A redis backend is always paired
// with an in-process fallback, so an unreachable server only degrades
// caching.
func (a *App) initCache(ctx context.Context) *cache.Cache {
	cc := a.cfg.Cache
	if a.cacheBackend == nil {
		mem := cache.NewMemory(cache.WithMaxEntries(cc.MaxEntries))
		switch cc.Backend {
		case config.CacheNone:
			slog.Info("extraction cache disabled")
			return nil
		case config.CacheRedis:
			rdb := cache.NewRedis(redis.NewClient(&redis.Options{
				Addr:     cc.Redis.Addr,
				Password: cc.Redis.Password,
				DB:       cc.Redis.DB,
				PoolSize: cc.Redis.PoolSize,
			}))
			a.closers = append(a.closers, rdb.Close)
			if err := rdb.Ping(ctx); err != nil {
				slog.Warn("cache: redis unavailable, using in-process cache until it recovers", "addr", cc.Redis.Addr, "err", err)
			}
			a.checkers = append(a.checkers, health.Checker{Name: "redis", Check: rdb.Ping, Optional: true})
			a.cacheBackend = cache.NewFallback(rdb, mem, resilience.BreakerConfig{
				OnStateChange: func(name string, from, to resilience.State) {
					slog.Warn("cache: circuit breaker state change", "breaker", name, "from", from, "to", to)
				},
			})
		default:
			a.cacheBackend = mem
		}
	}
	slog.Info("extraction cache ready", "backend", a.cacheBackend.Name(), "ttl", cc.TTL)
	return cache.New(a.cacheBackend, cache.WithTTL(cc.TTL), cache.WithMetrics(a.metrics))
}

// initPipeline loads rules and reference data and assembles the
// orchestrator.
func (a *App) initPipeline(c *cache.Cache) error {
	ex := a.cfg.Extraction

	rules := patterns.Default()
	if ex.RulesFile != "" {
		rs, err := patterns.LoadFile(ex.RulesFile, rules)
		if err != nil {
			return err
		}
		rules = rs
		slog.Info("loaded pattern rules", "path", ex.RulesFile, "version", rules.Version(), "rules", rules.Len())
	}

	classifier, err := a.loadClassifier()
	if err != nil {
		return err
	}

	extractor, err := a.buildNLP()
	if err != nil {
		return err
	}

	weights, err := a.cfg.Weights()
	if err != nil {
		return err
	}

	defaults, err := defaultOptions(ex)
	if err != nil {
		return err
	}

	opts := []extract.Option{
		extract.WithRules(rules),
		extract.WithClassifier(classifier),
		extract.WithNLP(extractor),
		extract.WithWeights(weights),
		extract.WithDefaults(defaults),
		extract.WithMaxTextBytes(ex.MaxTextBytes),
		extract.WithBatchPool(a.cfg.Server.BatchWorkers, a.cfg.Server.BatchQueue),
		extract.WithMetrics(a.metrics),
	}
	if c != nil {
		opts = append(opts, extract.WithCache(c))
	}
	if a.store != nil {
		opts = append(opts, extract.WithStore(a.store))
	}
	if e := a.buildEnricher(); e != nil {
		opts = append(opts, extract.WithEnricher(e))
	}
	a.orch = extract.New(opts...)
	return nil
}

func (a *App) loadClassifier() (*difficulty.Classifier, error) {
	ds := a.cfg.Extraction.Datasets
	var opts []difficulty.Option
	if v := a.cfg.Extraction.FuzzyThreshold; v > 0 {
		opts = append(opts, difficulty.WithFuzzyThreshold(v))
	}
	for _, f := range []struct {
		path string
		lang types.Language
	}{
		{ds.CEFR, types.English},
		{ds.JLPT, types.Japanese},
	} {
		if f.path == "" {
			continue
		}
		d, err := difficulty.LoadFile(f.path, f.lang)
		if err != nil {
			return nil, err
		}
		opts = append(opts, difficulty.WithDataset(d))
		slog.Info("loaded difficulty dataset", "path", f.path, "language", f.lang, "entries", len(d.Entries))
	}
	if ds.Frequency != "" {
		ranks, err := difficulty.LoadFrequencyFile(ds.Frequency)
		if err != nil {
			return nil, err
		}
		opts = append(opts, difficulty.WithFrequency(ranks))
		slog.Info("loaded frequency ranking", "path", ds.Frequency, "words", len(ranks))
	}
	return difficulty.New(opts...), nil
}

// buildNLP creates the configured taggers unless some were injected.
func (a *App) buildNLP() (*nlp.Extractor, error) {
	if a.taggers == nil {
		cfg := a.cfg.Extraction.NLP
		if cfg.Japanese == "kagome" {
			tg, err := kagome.New()
			if err != nil {
				return nil, fmt.Errorf("japanese tagger: %w", err)
			}
			a.taggers = append(a.taggers, tg)
		}
		if cfg.English == "prose" {
			a.taggers = append(a.taggers, prose.New())
		}
	}
	opts := make([]nlp.Option, 0, len(a.taggers))
	for _, t := range a.taggers {
		opts = append(opts, nlp.WithTagger(t))
		slog.Info("nlp backend ready", "language", t.Language())
	}
	return nlp.New(opts...), nil
}

// buildEnricher chains the configured LLMs for failover. It returns
// nil when no LLM is configured.
func (a *App) buildEnricher() extract.Enricher {
	p := a.providers
	if p.LLM == nil {
		return nil
	}
	names := a.cfg.Providers
	primary := llm.Provider(p.LLM)
	if len(p.LLMFallbacks) > 0 {
		chain := resilience.NewLLMChain(providerName(names.LLM.Name, "primary"), p.LLM, resilience.BreakerConfig{}, a.metrics)
		for i, f := range p.LLMFallbacks {
			name := fmt.Sprintf("fallback-%d", i)
			if i < len(names.LLMFallbacks) {
				name = providerName(names.LLMFallbacks[i].Name, name)
			}
			chain.Add(name, f)
		}
		a.checkers = append(a.checkers, health.Checker{Name: "llm", Check: chain.Check, Optional: true})
		primary = chain
	}
	slog.Info("enrichment enabled", "provider", names.LLM.Name, "fallbacks", len(p.LLMFallbacks), "timeout", a.cfg.Extraction.EnrichmentTimeout)
	return enrich.New(primary, enrich.WithTimeout(a.cfg.Extraction.EnrichmentTimeout))
}

func providerName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// defaultOptions converts the extraction section into orchestrator
// defaults.
func defaultOptions(ex config.ExtractionConfig) (extract.Options, error) {
	en, err := config.Level(ex.MinLevelEnglish, types.English)
	if err != nil {
		return extract.Options{}, err
	}
	ja, err := config.Level(ex.MinLevelJapanese, types.Japanese)
	if err != nil {
		return extract.Options{}, err
	}
	return extract.Options{
		MaxItems:         ex.MaxItems,
		Mode:             types.Method(ex.Mode),
		MinLevelEnglish:  en,
		MinLevelJapanese: ja,
	}, nil
}

func (a *App) initServer() {
	sc := a.cfg.Server
	a.srv = server.New(a.orch,
		server.WithMetrics(a.metrics),
		server.WithHealth(health.New(a.checkers...)),
		server.WithMetricsHandler(a.metricsH),
		server.WithRateLimit(server.RateLimit{
			RPS:         sc.RateLimit.RPS,
			Burst:       sc.RateLimit.Burst,
			GlobalRPS:   sc.RateLimit.GlobalRPS,
			GlobalBurst: sc.RateLimit.GlobalBurst,
		}),
		server.WithMaxBodyBytes(sc.MaxBodyBytes),
		server.WithOriginPatterns(sc.AllowedOrigins...),
	)
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Orchestrator returns the extraction pipeline.
func (a *App) Orchestrator() *extract.Orchestrator { return a.orch }

// Handler returns the HTTP handler serving the full API.
func (a *App) Handler() http.Handler { return a.srv.Handler() }

// Store returns the vocabulary store, or nil when persistence is disabled.
func (a *App) Store() store.Store { return a.store }

// ─── Reconfigure ─────────────────────────────────────────────────────────────

// Reconfigure applies the live-reloadable parts of a changed configuration:
// the log level and the ranking weights.
func (a *App) Reconfigure(cfg *config.Config, diff config.ConfigDiff) {
	if diff.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(SlogLevel(diff.NewLogLevel))
		slog.Info("log level changed", "level", diff.NewLogLevel)
	}
	if diff.RankingChanged {
		w, err := cfg.Weights()
		if err != nil {
			slog.Warn("ignoring invalid ranking weights", "err", err)
			return
		}
		a.orch.SetWeights(w)
		slog.Info("ranking weights updated", "fingerprint", w.Fingerprint())
	}
}

// SlogLevel maps a config log level to its slog counterpart.
func SlogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves the API on server.listen_addr, and /metrics on
// telemetry.metrics_addr when set, until ctx is cancelled. In-flight
// requests get up to ten seconds to finish.
func (a *App) Run(ctx context.Context) error {
	api := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	servers := []*http.Server{api}
	if addr := a.cfg.Telemetry.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", a.metricsH)
		servers = append(servers, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			slog.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("app: serve %s: %w", srv.Addr, err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case runErr = <-errCh:
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(drainCtx); err != nil {
			slog.Warn("http shutdown error", "addr", srv.Addr, "err", err)
		}
	}
	return runErr
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
