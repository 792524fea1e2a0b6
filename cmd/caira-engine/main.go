package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caira-ai/caira-engine/internal/cache"
	"github.com/caira-ai/caira-engine/internal/config"
	"github.com/caira-ai/caira-engine/internal/conversation"
	"github.com/caira-ai/caira-engine/internal/engine"
	"github.com/caira-ai/caira-engine/internal/httpserver"
	"github.com/caira-ai/caira-engine/internal/llm"
	"github.com/caira-ai/caira-engine/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config file")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error, none")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return err
	}

	together, err := llm.NewTogetherClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	if err != nil {
		return err
	}

	policy := llm.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.CompletionAttempts
	policy.AttemptTimeout = cfg.AttemptTimeout()
	backoffBase := cfg.BackoffBase()
	policy.Backoff = func(attempt int) time.Duration {
		return backoffBase * time.Duration(attempt)
	}

	responseCache := cache.New(cfg.CacheTTL())
	client := llm.NewCachedClient(llm.NewRetryClient(together, policy), responseCache)

	store := conversation.NewStore(cfg.MaxHistoryTurns)
	eng := engine.New(client, store)
	logger.Info("Caira engine initialized with model %s", cfg.Model)

	// Periodic cache sweep; lookups also expire lazily, so this only bounds
	// memory between lookups.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.CacheSweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-sweepDone:
				return
			case <-ticker.C:
				responseCache.PurgeExpired()
			}
		}
	}()
	defer close(sweepDone)

	server := httpserver.NewServer(eng, cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("Received %v, shutting down", sig)
		return server.Stop()
	}
}
