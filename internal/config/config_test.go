package config_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/lexora/internal/config"
	"github.com/MrWong99/lexora/pkg/provider/llm"
	llmmock "github.com/MrWong99/lexora/pkg/provider/llm/mock"
	"github.com/MrWong99/lexora/pkg/types"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
  rate_limit:
    rps: 5
    burst: 10
  batch_workers: 8
  batch_queue: 32
  allowed_origins: ["*.example.com"]

extraction:
  min_level_english: A2
  min_level_japanese: N4
  max_items: 30
  mode: pattern
  enrichment_timeout: 4s
  fuzzy_threshold: 0.85
  rules_file: /etc/lexora/rules.yaml
  datasets:
    cefr: /data/cefr.csv
    jlpt: /data/jlpt.json
    frequency: /data/freq.csv
  nlp:
    japanese: none

ranking:
  category_weights:
    vtuber_culture: 9
  difficulty_weights:
    6: 0

cache:
  backend: redis
  ttl: 1h
  max_entries: 200
  redis:
    addr: localhost:6379
    db: 2
    pool_size: 20

providers:
  llm:
    name: openai
    api_key: sk-test
    model: gpt-4o-mini
  llm_fallbacks:
    - name: anthropic
      model: claude-haiku

storage:
  backend: sqlite
  path: /var/lib/lexora/vocab.db

telemetry:
  service_name: lexora-test
  metrics_addr: ":9464"
  trace_sample_ratio: 0.25
`

// ── Tests ────────────────────────────────────────────────────────────────────

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" || cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.RateLimit.RPS != 5 || cfg.Server.RateLimit.Burst != 10 {
		t.Errorf("rate_limit = %+v", cfg.Server.RateLimit)
	}
	if cfg.Server.BatchWorkers != 8 || cfg.Server.BatchQueue != 32 {
		t.Errorf("batch pool = %d/%d", cfg.Server.BatchWorkers, cfg.Server.BatchQueue)
	}
	if cfg.Extraction.EnrichmentTimeout != 4*time.Second {
		t.Errorf("enrichment_timeout = %s", cfg.Extraction.EnrichmentTimeout)
	}
	if cfg.Extraction.FuzzyThreshold != 0.85 {
		t.Errorf("fuzzy_threshold = %v", cfg.Extraction.FuzzyThreshold)
	}
	if cfg.Extraction.Datasets.JLPT != "/data/jlpt.json" {
		t.Errorf("datasets = %+v", cfg.Extraction.Datasets)
	}
	if cfg.Extraction.NLP.Japanese != "none" || cfg.Extraction.NLP.English != "prose" {
		t.Errorf("nlp = %+v", cfg.Extraction.NLP)
	}
	if cfg.Cache.Backend != config.CacheRedis || cfg.Cache.TTL != time.Hour || cfg.Cache.Redis.DB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Providers.LLM.Model != "gpt-4o-mini" || len(cfg.Providers.LLMFallbacks) != 1 {
		t.Errorf("providers = %+v", cfg.Providers)
	}
	if cfg.Storage.Backend != config.StorageSQLite || cfg.Storage.Path == "" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Telemetry.TraceSampleRatio != 0.25 {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		got, want any
	}{
		{"listen_addr", cfg.Server.ListenAddr, config.DefaultListenAddr},
		{"log_level", cfg.Server.LogLevel, config.LogInfo},
		{"max_items", cfg.Extraction.MaxItems, config.DefaultMaxItems},
		{"mode", cfg.Extraction.Mode, "hybrid"},
		{"enrichment_timeout", cfg.Extraction.EnrichmentTimeout, 10 * time.Second},
		{"cache backend", cfg.Cache.Backend, config.CacheMemory},
		{"cache ttl", cfg.Cache.TTL, 24 * time.Hour},
		{"cache max_entries", cfg.Cache.MaxEntries, 1000},
		{"storage backend", cfg.Storage.Backend, config.StorageNone},
		{"service_name", cfg.Telemetry.ServiceName, "lexora"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("server:\n  colour: red\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
	if !strings.Contains(err.Error(), "colour") {
		t.Errorf("error should name the field, got: %v", err)
	}
}

func TestLoadFromReader_EnvOverrides(t *testing.T) {
	t.Setenv("LEXORA_LISTEN_ADDR", ":7070")
	t.Setenv("LEXORA_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("LEXORA_LLM_API_KEY", "sk-from-env")

	cfg, err := config.LoadFromReader(strings.NewReader(`
server:
  listen_addr: ":9090"
cache:
  backend: redis
providers:
  llm:
    name: openai
    api_key: sk-from-file
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":7070" {
		t.Errorf("listen_addr = %q, want env value", cfg.Server.ListenAddr)
	}
	if cfg.Cache.Redis.Addr != "redis.internal:6379" {
		t.Errorf("redis addr = %q", cfg.Cache.Redis.Addr)
	}
	if cfg.Providers.LLM.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q", cfg.Providers.LLM.APIKey)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LEXORA_STORAGE_BACKEND", "postgres")
	t.Setenv("LEXORA_POSTGRES_DSN", "postgres://localhost/lexora")

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != config.StoragePostgres || cfg.Storage.DSN != "postgres://localhost/lexora" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Server.ListenAddr != config.DefaultListenAddr {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := config.Load("/nonexistent/lexora.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("../../configs/example.yaml")
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if cfg.Cache.Backend != config.CacheMemory || cfg.Extraction.Mode != "hybrid" {
		t.Errorf("example config = %+v", cfg)
	}
}

func TestConfig_Weights(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, err := cfg.Weights()
	if err != nil {
		t.Fatalf("Weights: %v", err)
	}
	if got := w.Category[types.CategoryVTuberCulture]; got != 9 {
		t.Errorf("vtuber_culture weight = %v, want 9", got)
	}
	if got := w.Category[types.CategoryEssentialDaily]; got != 10 {
		t.Errorf("essential_daily weight = %v, want default 10", got)
	}
	if got := w.Difficulty[6]; got != 0 {
		t.Errorf("difficulty 6 weight = %v, want 0", got)
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label   string
		lang    types.Language
		want    types.Level
		wantErr bool
	}{
		{"", types.English, types.LevelUnknown, false},
		{"B1", types.English, types.B1, false},
		{"n3", types.Japanese, types.N3, false},
		{"N3", types.English, 0, true},
		{"A1", types.Japanese, 0, true},
		{"Z9", types.English, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.label+"/"+string(tt.lang), func(t *testing.T) {
			t.Parallel()
			got, err := config.Level(tt.label, tt.lang)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("level = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if config.LogLevel("verbose").IsValid() {
		t.Error(`"verbose" should be invalid`)
	}
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_CreateLLM(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	var got config.ProviderEntry
	reg.RegisterLLM("mock", func(e config.ProviderEntry) (llm.Provider, error) {
		got = e
		return &llmmock.Provider{}, nil
	})
	reg.RegisterLLM("broken", func(config.ProviderEntry) (llm.Provider, error) {
		return nil, errors.New("no api key")
	})

	p, err := reg.CreateLLM(config.ProviderEntry{Name: "mock", Model: "m1"})
	if err != nil || p == nil {
		t.Fatalf("CreateLLM: %v", err)
	}
	if got.Model != "m1" {
		t.Errorf("factory got entry %+v", got)
	}
	if _, err := p.Complete(context.Background(), llm.CompletionRequest{}); err != nil {
		t.Errorf("Complete: %v", err)
	}

	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "missing"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("missing provider err = %v", err)
	}
	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "broken"}); err == nil || !strings.Contains(err.Error(), "no api key") {
		t.Errorf("broken provider err = %v", err)
	}

	names := reg.LLMNames()
	if len(names) != 2 || names[0] != "broken" || names[1] != "mock" {
		t.Errorf("LLMNames = %v", names)
	}
}
