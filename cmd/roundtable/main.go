package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweetpotato0/roundtable/config"
	"github.com/sweetpotato0/roundtable/httpapi"
	"github.com/sweetpotato0/roundtable/middleware"
	"github.com/sweetpotato0/roundtable/pkg/logging"
	"github.com/sweetpotato0/roundtable/pkg/telemetry"
	"github.com/sweetpotato0/roundtable/prompt"
	"github.com/sweetpotato0/roundtable/provider"
	"github.com/sweetpotato0/roundtable/provider/claude"
	"github.com/sweetpotato0/roundtable/provider/deepseek"
	"github.com/sweetpotato0/roundtable/provider/gemini"
	"github.com/sweetpotato0/roundtable/provider/openai"
	"github.com/sweetpotato0/roundtable/session"
	"github.com/sweetpotato0/roundtable/transcript/store"
)

func main() {
	logger := logging.WithComponent("main")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "roundtable",
		Disable:     os.Getenv("ROUNDTABLE_TRACING") == "off",
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		logger.Error("failed to build provider registry", "error", err)
		os.Exit(1)
	}
	if len(registry.Names()) == 0 {
		logger.Error("no backends configured, set at least one API key")
		os.Exit(1)
	}
	logger.Info("backends registered", "names", registry.Names())

	transcripts, err := store.Open(cfg.StoreBackend)
	if err != nil {
		logger.Error("failed to open transcript store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}

	var budget *prompt.HistoryBudget
	if cfg.HistoryTokens > 0 {
		budget, err = prompt.NewHistoryBudget(cfg.HistoryEncoding, cfg.HistoryTokens)
		if err != nil {
			logger.Error("failed to build history budget", "error", err)
			os.Exit(1)
		}
	}

	chain := middleware.NewChain(middleware.NewCallLogger(nil))
	if cfg.MaxCallsPerSession > 0 {
		chain.Add(middleware.NewCallLimiter(cfg.MaxCallsPerSession))
	}

	orc := session.NewOrchestrator(registry, transcripts, budget, chain, session.Policy{
		CallTimeout:  cfg.CallTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		TurnInterval: cfg.TurnInterval,
	})
	runner := session.NewRunner(orc, session.RunnerConfig{
		DefaultRoster:   cfg.DefaultRoster,
		DefaultMaxTurns: cfg.MaxTurns,
		MaxConcurrent:   cfg.MaxConcurrentSessions,
	})

	e := httpapi.NewServer(runner)
	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("server started", "addr", cfg.ListenAddr, "store", cfg.StoreBackend)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down server gracefully", "error", err)
	}
	if err := runner.Close(shutdownCtx); err != nil {
		logger.Error("failed to drain running sessions", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("failed to shut down telemetry", "error", err)
	}
	logger.Info("stopped")
}

// buildRegistry registers one backend per configured API key. Speaker ids
// match the default roster names. System prompts fall back to the shared
// default instruction unless overridden per backend.
func buildRegistry(ctx context.Context, cfg *config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()
	prompts := prompt.NewManager()
	systemFor := func(speaker, override string) string {
		if override != "" {
			return override
		}
		return prompts.SystemFor(speaker, "")
	}

	if cfg.OpenAI.Enabled() {
		p := openai.New("gpt", &openai.Config{
			APIKey:       cfg.OpenAI.APIKey,
			Model:        cfg.OpenAI.Model,
			SystemPrompt: systemFor("gpt", cfg.OpenAI.SystemPrompt),
		})
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	if cfg.Gemini.Enabled() {
		p, err := gemini.New(ctx, "gemini", &gemini.Config{
			APIKey:       cfg.Gemini.APIKey,
			Model:        cfg.Gemini.Model,
			SystemPrompt: systemFor("gemini", cfg.Gemini.SystemPrompt),
		})
		if err != nil {
			return nil, err
		}
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	if cfg.DeepSeek.Enabled() {
		p := deepseek.New("deepseek", &deepseek.Config{
			APIKey:       cfg.DeepSeek.APIKey,
			Model:        cfg.DeepSeek.Model,
			SystemPrompt: systemFor("deepseek", cfg.DeepSeek.SystemPrompt),
		})
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	if cfg.Anthropic.Enabled() {
		p := claude.New("claude", &claude.Config{
			APIKey:       cfg.Anthropic.APIKey,
			Model:        cfg.Anthropic.Model,
			SystemPrompt: systemFor("claude", cfg.Anthropic.SystemPrompt),
		})
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
