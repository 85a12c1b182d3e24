// Package config provides the configuration schema, loader, watcher and
// provider registry for the Lexora service.
package config

import "time"

// LogLevel controls log verbosity for the Lexora server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// CacheBackend selects where extraction results are cached.
type CacheBackend string

const (
	CacheNone   CacheBackend = "none"
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// IsValid reports whether b is a recognised cache backend.
func (b CacheBackend) IsValid() bool {
	return b == CacheNone || b == CacheMemory || b == CacheRedis
}

// StorageBackend selects where persisted vocabulary lives.
type StorageBackend string

const (
	StorageNone     StorageBackend = "none"
	StoragePostgres StorageBackend = "postgres"
	StorageSQLite   StorageBackend = "sqlite"
)

// IsValid reports whether b is a recognised storage backend.
func (b StorageBackend) IsValid() bool {
	return b == StorageNone || b == StoragePostgres || b == StorageSQLite
}

// Config is the root configuration structure for Lexora.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Cache      CacheConfig      `yaml:"cache"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Storage    StorageConfig    `yaml:"storage"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// ServerConfig holds network and process settings.
type ServerConfig struct {
	// ListenAddr is the HTTP listen address. Default: ":8080".
	ListenAddr string `yaml:"listen_addr" env:"LEXORA_LISTEN_ADDR"`

	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level" env:"LEXORA_LOG_LEVEL"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// BatchWorkers and BatchQueue size the batch extraction pool.
	BatchWorkers int `yaml:"batch_workers"`
	BatchQueue   int `yaml:"batch_queue"`

	// MaxBodyBytes bounds request bodies and stream messages.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// AllowedOrigins are host patterns allowed to open /v1/stream from a
	// browser on another origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig throttles the API. A zero RPS disables limiting.
type RateLimitConfig struct {
	RPS         float64 `yaml:"rps"`
	Burst       int     `yaml:"burst"`
	GlobalRPS   float64 `yaml:"global_rps"`
	GlobalBurst int     `yaml:"global_burst"`
}

// ExtractionConfig holds pipeline defaults and reference data locations.
type ExtractionConfig struct {
	// MinLevelEnglish and MinLevelJapanese are level labels ("B1", "N3")
	// applied when a request sets no floor of its own.
	MinLevelEnglish  string `yaml:"min_level_english"`
	MinLevelJapanese string `yaml:"min_level_japanese"`

	// MaxItems is the default item cap. Default: 50.
	MaxItems int `yaml:"max_items"`

	// MaxTextBytes bounds a single transcript. Default: 1 MiB.
	MaxTextBytes int `yaml:"max_text_bytes"`

	// Mode is the default mode: pattern, nlp or hybrid. Default: hybrid.
	Mode string `yaml:"mode"`

	// EnrichmentTimeout bounds one enrichment call. Default: 10s.
	EnrichmentTimeout time.Duration `yaml:"enrichment_timeout"`

	// FuzzyThreshold is the minimum Jaro-Winkler similarity for a misspelt
	// English expression to take the level of a known one. Default: 0.90.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`

	// RulesFile optionally replaces or extends the built-in pattern table.
	RulesFile string `yaml:"rules_file"`

	Datasets DatasetConfig `yaml:"datasets"`
	NLP      NLPConfig     `yaml:"nlp"`
}

// DatasetConfig lists custom difficulty reference files.
type DatasetConfig struct {
	// CEFR is a CSV or JSON file of English expressions and CEFR levels.
	CEFR string `yaml:"cefr"`

	// JLPT is a CSV or JSON file of Japanese expressions and JLPT levels.
	JLPT string `yaml:"jlpt"`

	// Frequency is a "word,rank" CSV of English word frequencies.
	Frequency string `yaml:"frequency"`
}

// NLPConfig selects the tagger per language. Known values are "kagome"
// for Japanese, "prose" for English, and "none" for either.
type NLPConfig struct {
	Japanese string `yaml:"japanese"`
	English  string `yaml:"english"`
}

// RankingConfig overrides individual ranking weights. Absent entries keep
// their built-in value.
type RankingConfig struct {
	CategoryWeights   map[string]float64 `yaml:"category_weights"`
	DifficultyWeights map[int]float64    `yaml:"difficulty_weights"`
}

// CacheConfig configures the extraction cache.
type CacheConfig struct {
	// Backend is none, memory or redis. Default: memory.
	Backend CacheBackend `yaml:"backend" env:"LEXORA_CACHE_BACKEND"`

	// TTL is the entry lifetime. Default: 24h.
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries caps the in-process backend. Default: 1000.
	MaxEntries int `yaml:"max_entries"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"LEXORA_REDIS_ADDR"`
	Password string `yaml:"password" env:"LEXORA_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ProvidersConfig holds the LLM used for enrichment. An empty name
// disables enrichment.
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`

	// LLMFallbacks are tried in order when the primary fails.
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`
}

// ProviderEntry is the common configuration shape for a provider.
type ProviderEntry struct {
	// Name is the registered provider name (e.g., "openai", "anthropic").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `yaml:"api_key" env:"LEXORA_LLM_API_KEY"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url" env:"LEXORA_LLM_BASE_URL"`

	// Model selects a specific model (e.g., "gpt-4o-mini").
	Model string `yaml:"model"`

	// Options holds provider-specific key/value configuration.
	Options map[string]any `yaml:"options"`
}

// StorageConfig configures vocabulary persistence.
type StorageConfig struct {
	// Backend is none, postgres or sqlite. Default: none.
	Backend StorageBackend `yaml:"backend" env:"LEXORA_STORAGE_BACKEND"`

	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn" env:"LEXORA_POSTGRES_DSN"`

	// Path is the SQLite database file.
	Path string `yaml:"path" env:"LEXORA_SQLITE_PATH"`
}

// TelemetryConfig configures OpenTelemetry.
type TelemetryConfig struct {
	// ServiceName is reported in telemetry. Default: "lexora".
	ServiceName string `yaml:"service_name"`

	// MetricsAddr, when set, serves /metrics on a separate listener in
	// addition to the API listener.
	MetricsAddr string `yaml:"metrics_addr" env:"LEXORA_METRICS_ADDR"`

	// TraceSampleRatio is the fraction of root traces recorded.
	TraceSampleRatio float64 `yaml:"trace_sample_ratio"`
}
