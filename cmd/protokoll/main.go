// Command protokoll is the main entry point for the Protokoll meeting
// transcription server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/protokoll/internal/audio"
	"github.com/MrWong99/protokoll/internal/config"
	"github.com/MrWong99/protokoll/internal/health"
	"github.com/MrWong99/protokoll/internal/meeting/postgres"
	"github.com/MrWong99/protokoll/internal/observe"
	"github.com/MrWong99/protokoll/internal/resilience"
	"github.com/MrWong99/protokoll/internal/server"
	"github.com/MrWong99/protokoll/internal/summary"
	"github.com/MrWong99/protokoll/internal/transcribe"
	"github.com/MrWong99/protokoll/pkg/provider/embeddings"
	oaembed "github.com/MrWong99/protokoll/pkg/provider/embeddings/openai"
	"github.com/MrWong99/protokoll/pkg/provider/llm"
	"github.com/MrWong99/protokoll/pkg/provider/llm/anyllm"
	"github.com/MrWong99/protokoll/pkg/provider/stt"
	"github.com/MrWong99/protokoll/pkg/provider/stt/whisper"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

// logLevelVar backs the default logger so the config watcher can adjust
// verbosity without rebuilding handlers.
var logLevelVar slog.LevelVar

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "protokoll: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "protokoll: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevelVar.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevelVar}))
	slog.SetDefault(logger)

	slog.Info("protokoll starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "protokoll"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}
	if providers.STT == nil {
		slog.Error("no stt provider configured — transcription cannot work")
		return 1
	}
	if providers.LLM == nil {
		slog.Error("no llm provider configured — summaries cannot work")
		return 1
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	dims := 0
	if providers.Embeddings != nil {
		dims = cfg.Storage.EmbeddingDimensions
		if dims <= 0 {
			dims = providers.Embeddings.Dimensions()
		}
	}
	store, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN, dims)
	if err != nil {
		slog.Error("failed to open store", "err", err)
		return 1
	}
	defer store.Close()

	// ── Domain wiring ─────────────────────────────────────────────────────────
	sttBackend := resilience.NewSTTFallback(providers.STT, cfg.Providers.STT.Name, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{Name: "stt"},
	})
	llmBackend := resilience.NewLLMFallback(providers.LLM, cfg.Providers.LLM.Name, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{Name: "llm"},
	})

	orchestrator := transcribe.NewOrchestrator(sttBackend, logger)
	pipeline := summary.NewPipeline(llmBackend, store.Summaries(), store.Segments(),
		summary.NewLoader(cfg.Templates.Dir), logger)
	gate := audio.NewGate(logger)

	deps := server.Deps{
		Logger:       logger,
		Meetings:     store.Meetings(),
		Segments:     store.Segments(),
		Orchestrator: orchestrator,
		Gate:         gate,
		Pipeline:     pipeline,
		Embeddings:   providers.Embeddings,
		Health: health.New(health.Checker{
			Name:  "postgres",
			Check: store.Ping,
		}),
		Capture: server.CaptureConfig{
			ChunkSeconds: cfg.Capture.ChunkSeconds,
			WindowChunks: cfg.Capture.WindowChunks,
		},
	}
	// Semantic stays a nil interface when embeddings are off; Store.Semantic
	// would hand back a typed nil pointer.
	if idx := store.Semantic(); idx != nil {
		deps.Semantic = idx
	}

	printStartupSummary(cfg, dims)

	// ── Config watcher (log level hot reload) ─────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		if old.Server.LogLevel != new.Server.LogLevel {
			logLevelVar.Set(slogLevel(new.Server.LogLevel))
			slog.Info("log level changed", "old", old.Server.LogLevel, "new", new.Server.LogLevel)
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	httpSrv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.New(deps).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr)
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// builtinProviders maps provider category names to the implementations that
// ship with Protokoll. Used for startup logging.
var builtinProviders = map[string][]string{
	"llm":        {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt":        {"whisper"},
	"embeddings": {"openai"},
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai, anthropic, gemini, deepseek, mistral, groq, llamacpp, llamafile
	// all share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			p, err := anyllm.New(providerName, entry.Model, opts...)
			if err != nil {
				return nil, err
			}
			return p, nil
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		p, err := anyllm.New("ollama", entry.Model, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	})

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		return whisper.New(entry.BaseURL, entry.APIKey, opts...)
	})

	// ── Embeddings ────────────────────────────────────────────────────────────

	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})

	// Debug log of all registered providers.
	for kind, names := range builtinProviders {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// providerSet holds the instantiated external engines.
type providerSet struct {
	STT        stt.Provider
	LLM        llm.Provider
	Embeddings embeddings.Provider
}

// buildProviders instantiates all providers named in cfg using the registry.
func buildProviders(cfg *config.Config, reg *config.Registry) (*providerSet, error) {
	ps := &providerSet{}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "stt", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", name, err)
		} else {
			ps.STT = p
			slog.Info("provider created", "kind", "stt", "name", name)
		}
	}

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "llm", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", name, err)
		} else {
			ps.LLM = p
			slog.Info("provider created", "kind", "llm", "name", name)
		}
	}

	if name := cfg.Providers.Embeddings.Name; name != "" {
		p, err := reg.CreateEmbeddings(cfg.Providers.Embeddings)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "embeddings", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create embeddings provider %q: %w", name, err)
		} else {
			ps.Embeddings = p
			slog.Info("provider created", "kind", "embeddings", "name", name)
		}
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, embeddingDims int) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Protokoll — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	printProvider("Embeddings", cfg.Providers.Embeddings.Name, cfg.Providers.Embeddings.Model)
	if embeddingDims > 0 {
		fmt.Printf("║  Semantic search : %-19s ║\n", fmt.Sprintf("on (%d dims)", embeddingDims))
	} else {
		fmt.Printf("║  Semantic search : %-19s ║\n", "(disabled)")
	}
	fmt.Printf("║  Templates dir   : %-19s ║\n", trimCell(cfg.Templates.Dir))
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", trimCell(cfg.Server.ListenAddr))
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, trimCell(value))
}

func trimCell(value string) string {
	if len(value) > 19 {
		return value[:16] + "…"
	}
	return value
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
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
