package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/lexora/internal/rank"
	"github.com/MrWong99/lexora/pkg/types"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr        = ":8080"
	DefaultMaxItems          = 50
	DefaultMode              = "hybrid"
	DefaultEnrichmentTimeout = 10 * time.Second
	DefaultCacheTTL          = 24 * time.Hour
	DefaultCacheMaxEntries   = 1000
	DefaultServiceName       = "lexora"
)

// Load reads the YAML configuration file at path, applies environment
// overrides and defaults, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, then applies LEXORA_*
// environment overrides and defaults, and validates the result. Empty input
// yields the default configuration.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return finish(cfg)
}

// FromEnv builds a configuration from defaults and LEXORA_* environment
// variables alone, for running without a config file.
func FromEnv() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read environment: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills every unset field that has a default.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Extraction.MaxItems == 0 {
		cfg.Extraction.MaxItems = DefaultMaxItems
	}
	if cfg.Extraction.Mode == "" {
		cfg.Extraction.Mode = DefaultMode
	}
	if cfg.Extraction.EnrichmentTimeout == 0 {
		cfg.Extraction.EnrichmentTimeout = DefaultEnrichmentTimeout
	}
	if cfg.Extraction.NLP.Japanese == "" {
		cfg.Extraction.NLP.Japanese = "kagome"
	}
	if cfg.Extraction.NLP.English == "" {
		cfg.Extraction.NLP.English = "prose"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheMemory
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageNone
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	rl := cfg.Server.RateLimit
	if rl.RPS < 0 || rl.Burst < 0 || rl.GlobalRPS < 0 || rl.GlobalBurst < 0 {
		errs = append(errs, errors.New("server.rate_limit values must not be negative"))
	}
	if cfg.Server.BatchWorkers < 0 || cfg.Server.BatchQueue < 0 {
		errs = append(errs, errors.New("server.batch_workers and server.batch_queue must not be negative"))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes %d must not be negative", cfg.Server.MaxBodyBytes))
	}

	// Extraction
	ex := cfg.Extraction
	errs = append(errs, validateLevel("extraction.min_level_english", ex.MinLevelEnglish, types.English))
	errs = append(errs, validateLevel("extraction.min_level_japanese", ex.MinLevelJapanese, types.Japanese))
	if ex.MaxItems < 0 || ex.MaxItems > 500 {
		errs = append(errs, fmt.Errorf("extraction.max_items %d is out of range [1, 500]", ex.MaxItems))
	}
	if ex.MaxTextBytes < 0 {
		errs = append(errs, fmt.Errorf("extraction.max_text_bytes %d must not be negative", ex.MaxTextBytes))
	}
	if ex.Mode != "" && !types.Method(ex.Mode).IsValid() {
		errs = append(errs, fmt.Errorf("extraction.mode %q is invalid; valid values: pattern, nlp, hybrid", ex.Mode))
	}
	if ex.FuzzyThreshold < 0 || ex.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("extraction.fuzzy_threshold %.2f is out of range [0, 1]", ex.FuzzyThreshold))
	}
	if ex.EnrichmentTimeout < 0 {
		errs = append(errs, fmt.Errorf("extraction.enrichment_timeout %s must not be negative", ex.EnrichmentTimeout))
	}
	if j := ex.NLP.Japanese; j != "" && j != "kagome" && j != "none" {
		errs = append(errs, fmt.Errorf("extraction.nlp.japanese %q is invalid; valid values: kagome, none", j))
	}
	if e := ex.NLP.English; e != "" && e != "prose" && e != "none" {
		errs = append(errs, fmt.Errorf("extraction.nlp.english %q is invalid; valid values: prose, none", e))
	}

	// Ranking
	if _, err := cfg.Weights(); err != nil {
		errs = append(errs, fmt.Errorf("ranking: %w", err))
	}

	// Cache
	if cfg.Cache.Backend != "" && !cfg.Cache.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("cache.backend %q is invalid; valid values: none, memory, redis", cfg.Cache.Backend))
	}
	if cfg.Cache.Backend == CacheRedis && cfg.Cache.Redis.Addr == "" {
		errs = append(errs, errors.New("cache.redis.addr is required when cache.backend is redis"))
	}
	if cfg.Cache.TTL < 0 || cfg.Cache.MaxEntries < 0 {
		errs = append(errs, errors.New("cache.ttl and cache.max_entries must not be negative"))
	}

	// Storage
	switch cfg.Storage.Backend {
	case "", StorageNone:
	case StoragePostgres:
		if cfg.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required when storage.backend is postgres"))
		}
	case StorageSQLite:
		if cfg.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required when storage.backend is sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is invalid; valid values: none, postgres, sqlite", cfg.Storage.Backend))
	}

	// Telemetry
	if r := cfg.Telemetry.TraceSampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("telemetry.trace_sample_ratio %.2f is out of range [0, 1]", r))
	}

	// Providers
	validateProviderName("llm", cfg.Providers.LLM.Name)
	for i, fb := range cfg.Providers.LLMFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.llm_fallbacks[%d].name is required", i))
			continue
		}
		validateProviderName("llm", fb.Name)
	}
	if cfg.Providers.LLM.Name == "" && len(cfg.Providers.LLMFallbacks) > 0 {
		errs = append(errs, errors.New("providers.llm_fallbacks requires providers.llm"))
	}

	return errors.Join(errs...)
}

// Weights returns the ranking weights with the configured overrides applied.
func (c *Config) Weights() (rank.Weights, error) {
	return rank.WeightsFrom(c.Ranking.CategoryWeights, c.Ranking.DifficultyWeights)
}

// Level parses a configured level label of the given language. An empty
// label yields [types.LevelUnknown].
func Level(label string, lang types.Language) (types.Level, error) {
	if label == "" {
		return types.LevelUnknown, nil
	}
	lvl, scale, err := types.ParseLevel(label)
	if err != nil {
		return types.LevelUnknown, err
	}
	if scale != lang {
		return types.LevelUnknown, fmt.Errorf("%q is not a %s level", label, lang)
	}
	return lvl, nil
}

func validateLevel(field, label string, lang types.Language) error {
	if _, err := Level(label, lang); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// validateProviderName logs a warning if name is non-empty and not in the
// known list for kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	if known, ok := ValidProviderNames[kind]; ok && !slices.Contains(known, name) {
		slog.Warn("unknown provider name; it may be a custom provider", "kind", kind, "name", name, "known", known)
	}
}
