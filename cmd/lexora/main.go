// Command lexora serves the vocabulary extraction API and extracts
// vocabulary from transcript files on the command line.
//
//	lexora serve   [-config lexora.yaml]
//	lexora extract [-config lexora.yaml] [-format srt] [-enrich] file...
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/lexora/internal/app"
	"github.com/MrWong99/lexora/internal/config"
	"github.com/MrWong99/lexora/internal/extract"
	"github.com/MrWong99/lexora/internal/observe"
	"github.com/MrWong99/lexora/internal/source"
	"github.com/MrWong99/lexora/pkg/provider/llm"
	"github.com/MrWong99/lexora/pkg/provider/llm/anyllm"
	"github.com/MrWong99/lexora/pkg/provider/llm/openai"
	"github.com/MrWong99/lexora/pkg/types"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}
	switch args[0] {
	case "serve":
		return serve(args[1:])
	case "extract":
		return extractFiles(args[1:])
	case "-h", "-help", "--help", "help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "lexora: unknown command %q\n", args[0])
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: lexora <serve|extract> [flags]")
	fmt.Fprintln(os.Stderr, "run 'lexora <command> -h' for the flags of a command")
}

// newFlagSet returns a flag set whose usage also lists the environment
// variables the configuration reads.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	header := "\nEnvironment variables:"
	fs.Usage = cleanenv.FUsage(fs.Output(), &config.Config{}, &header, func() {
		fmt.Fprintf(fs.Output(), "usage: lexora %s [flags]\n", name)
		fs.PrintDefaults()
	})
	return fs
}

// ── serve ─────────────────────────────────────────────────────────────────────

func serve(args []string) int {
	fs := newFlagSet("serve")
	configPath := fs.String("config", "", "path to the YAML configuration file (default: environment only)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var level slog.LevelVar
	slog.SetDefault(newLogger(&level))

	// The watcher callback fires only after the application exists.
	var application *app.App
	var watcher *config.Watcher
	var cfg *config.Config
	var err error
	if *configPath != "" {
		watcher, err = config.NewWatcher(*configPath, func(_, next *config.Config, diff config.ConfigDiff) {
			if application != nil {
				application.Reconfigure(next, diff)
			}
		})
		if err != nil {
			return configError(*configPath, err)
		}
		cfg = watcher.Current()
	} else if cfg, err = config.FromEnv(); err != nil {
		return configError("", err)
	}
	level.Set(app.SlogLevel(cfg.Server.LogLevel))

	slog.Info("lexora starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"cache", cfg.Cache.Backend,
		"storage", cfg.Storage.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRatio: cfg.Telemetry.TraceSampleRatio,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(tctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	providers, err := buildProviders(cfg, newRegistry())
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	application, err = app.New(ctx, cfg, providers, app.WithLogLevel(&level))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	if watcher != nil {
		go watcher.Run(ctx)
	}

	slog.Info("server ready, press Ctrl+C to shut down")

	code := 0
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		code = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("shutting down")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return code
}

// ── extract ───────────────────────────────────────────────────────────────────

func extractFiles(args []string) int {
	fs := newFlagSet("extract")
	configPath := fs.String("config", "", "path to the YAML configuration file (default: environment only)")
	format := fs.String("format", "", "input format: text, srt, vtt or html (default: from the file extension)")
	charset := fs.String("charset", "", "input character set, e.g. shift_jis (default: utf-8)")
	lang := fs.String("lang", "", "restrict extraction to en or ja")
	mode := fs.String("mode", "", "extraction mode: pattern, nlp or hybrid")
	maxItems := fs.Int("max", 0, "maximum number of items per file")
	enrich := fs.Bool("enrich", false, "add translations and notes with the configured LLM")
	persist := fs.Bool("persist", false, "save the items in the configured store under the file name")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	files := fs.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}

	var level slog.LevelVar
	slog.SetDefault(newLogger(&level))

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return configError(*configPath, err)
	}
	// Keep stderr quiet unless the configuration asks for more.
	level.Set(max(app.SlogLevel(cfg.Server.LogLevel), slog.LevelWarn))

	opts := extract.Options{
		TargetLanguage: types.Language(*lang),
		MaxItems:       *maxItems,
		Mode:           types.Method(*mode),
		Enrich:         *enrich,
		Persist:        *persist,
	}
	if *persist && cfg.Storage.Backend == config.StorageNone {
		fmt.Fprintln(os.Stderr, "lexora: -persist needs storage.backend postgres or sqlite")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var providers *app.Providers
	if *enrich {
		if providers, err = buildProviders(cfg, newRegistry()); err != nil {
			fmt.Fprintf(os.Stderr, "lexora: %v\n", err)
			return 1
		}
	}
	application, err := app.New(ctx, cfg, providers, app.WithLogLevel(&level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexora: %v\n", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = application.Shutdown(sctx)
	}()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	code := 0
	for _, path := range files {
		res, err := extractFile(ctx, application.Orchestrator(), path, *format, *charset, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lexora: %s: %v\n", path, err)
			code = 1
			continue
		}
		if err := enc.Encode(fileResult{File: path, Result: res}); err != nil {
			fmt.Fprintf(os.Stderr, "lexora: write output: %v\n", err)
			return 1
		}
	}
	return code
}

type fileResult struct {
	File string `json:"file"`
	*types.Result
}

func extractFile(ctx context.Context, orch *extract.Orchestrator, path, format, charset string, opts extract.Options) (*types.Result, error) {
	var r io.Reader = os.Stdin
	f := source.FormatText
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
		f = source.FormatFromPath(path)
	}
	if format != "" {
		parsed, err := source.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		f = parsed
	}

	text, err := source.Decode(r, f, charset)
	if err != nil {
		return nil, err
	}
	opts.SourceID = path
	return orch.Extract(ctx, text, opts)
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// newRegistry wires the built-in LLM factories. openai talks to the API
// through the official SDK; every other backend goes through any-llm-go.
func newRegistry() *config.Registry {
	reg := config.NewRegistry()
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		if d, err := time.ParseDuration(optString(entry.Options, "timeout")); err == nil && d > 0 {
			opts = append(opts, openai.WithTimeout(d))
		}
		p, err := openai.New(entry.APIKey, entry.Model, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	for _, name := range anyllm.Backends() {
		if name == "openai" {
			continue
		}
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			p, err := anyllm.New(name, entry.Model, opts...)
			if err != nil {
				return nil, err
			}
			return p, nil
		})
	}
	slog.Debug("registered llm providers", "names", reg.LLMNames())
	return reg
}

// buildProviders instantiates the configured LLM and its fallbacks.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}
	if cfg.Providers.LLM.Name == "" {
		return ps, nil
	}
	p, err := createLLM(reg, cfg.Providers.LLM)
	if err != nil {
		return nil, err
	}
	ps.LLM = p
	for _, entry := range cfg.Providers.LLMFallbacks {
		fb, err := createLLM(reg, entry)
		if err != nil {
			return nil, err
		}
		if fb != nil {
			ps.LLMFallbacks = append(ps.LLMFallbacks, fb)
		}
	}
	return ps, nil
}

// createLLM returns nil for names without a registered factory so that a
// typo disables enrichment instead of the whole service.
func createLLM(reg *config.Registry, entry config.ProviderEntry) (llm.Provider, error) {
	p, err := reg.CreateLLM(entry)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("llm provider not registered, skipping", "name", entry.Name, "known", reg.LLMNames())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slog.Info("provider created", "kind", "llm", "name", entry.Name, "model", entry.Model)
	return p, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func configError(path string, err error) int {
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(os.Stderr, "lexora: config file %q not found, copy configs/example.yaml to get started\n", path)
	default:
		fmt.Fprintf(os.Stderr, "lexora: %v\n", err)
	}
	return 1
}

func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// optString extracts a string value from a provider Options map.
func optString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}
