package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/priorauth/autoauth/agents"
	"github.com/priorauth/autoauth/config"
	"github.com/priorauth/autoauth/llm"
	"github.com/priorauth/autoauth/observability"
	"github.com/priorauth/autoauth/orchestrate"
	"github.com/priorauth/autoauth/search"
	"github.com/priorauth/autoauth/server"
	"github.com/priorauth/autoauth/store"
	"github.com/priorauth/autoauth/worker"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to config file, JSON or YAML (required)")
		metadata    = flag.String("metadata", "", "Clinical metadata for a one-shot retrieval run")
		serve       = flag.Bool("serve", false, "Run the HTTP API server")
		listenAddr  = flag.String("listen", "", "HTTP listen address (overrides config)")
		policiesDir = flag.String("policies", "", "Directory of policy documents to index (overrides config)")
		rolesDir    = flag.String("roles", "", "Directory of agent role definition files (overrides config)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *configFile == "" || (*metadata == "" && !*serve) {
		fmt.Fprintln(os.Stderr, "Usage: autoauth -config <file> [-metadata <text> | -serve]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *policiesDir != "" {
		cfg.PoliciesDir = *policiesDir
	}
	if *rolesDir != "" {
		cfg.RolesDir = *rolesDir
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observer := observability.NewSlogObserver(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chat, err := buildGroupChat(ctx, cfg, logger, observer)
	if err != nil {
		log.Fatalf("Failed to initialize retrieval core: %v", err)
	}

	if *metadata != "" {
		runOnce(ctx, chat, *metadata)
		return
	}

	serveAPI(ctx, cfg, chat, logger)
}

func buildGroupChat(ctx context.Context, cfg *config.Config, logger *slog.Logger, observer observability.Observer) (*orchestrate.GroupChat, error) {
	apiKey := cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("AUTOAUTH_API_KEY")
	}
	client := llm.NewClient(cfg.LLM.BaseURL, apiKey, cfg.LLM.Model, cfg.Orchestration.TurnTimeout())

	index := search.NewIndex(search.WithTopK(cfg.Search.TopK))
	if cfg.PoliciesDir != "" {
		n, err := search.IndexDirectory(ctx, index, cfg.PoliciesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to index policy documents: %w", err)
		}
		logger.Info("policy documents indexed", "dir", cfg.PoliciesDir, "count", n)
	}

	caps := agents.NewCapabilities()
	caps.RegisterSearcher(agents.CapabilityPolicySearch, index)

	defs := agents.DefaultDefinitions()
	if cfg.RolesDir != "" {
		var err error
		defs, err = agents.LoadDefinitions(cfg.RolesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load role definitions: %w", err)
		}
	}

	roster, err := agents.NewRoster(defs, client, caps)
	if err != nil {
		return nil, err
	}

	return orchestrate.New(roster,
		orchestrate.WithObserver(observer),
		orchestrate.WithMaxIterations(cfg.Orchestration.MaxIterations),
		orchestrate.WithGenerationRetries(cfg.Orchestration.GenerationRetries),
		orchestrate.WithParseRetries(cfg.Orchestration.ParseRetries),
		orchestrate.WithTurnTimeout(cfg.Orchestration.TurnTimeout()),
	), nil
}

func runOnce(ctx context.Context, chat *orchestrate.GroupChat, metadata string) {
	result, err := chat.Run(ctx, metadata)
	if err != nil {
		log.Fatalf("Retrieval session failed: %v", err)
	}

	out, err := json.MarshalIndent(map[string]any{
		"policies":  result.Verdict.NormalizedPolicies(),
		"reasoning": result.Verdict.Reasoning,
		"retry":     result.Verdict.Retry,
	}, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode verdict: %v", err)
	}

	fmt.Println(string(out))
	fmt.Printf("\nSession: %s\nIterations: %d\n", result.SessionID, result.Iterations)
}

func serveAPI(ctx context.Context, cfg *config.Config, chat *orchestrate.GroupChat, logger *slog.Logger) {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	repo := store.NewCaseRepository(db)

	svc := server.NewRetrievalService(repo, chat, logger)
	pool, err := worker.NewPool(cfg.Worker.PoolSize, svc,
		worker.WithLogger(logger),
		worker.WithMaxAttempts(cfg.Worker.Retries+1),
	)
	if err != nil {
		log.Fatalf("Failed to create worker pool: %v", err)
	}
	pool.Start()
	defer pool.Stop()

	router := server.Setup(server.NewCaseHandler(repo, pool))
	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: router}

	go func() {
		logger.Info("serving case API", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
}
