package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storyline/internal/config"
	"storyline/internal/events"
	"storyline/internal/handlers"
	"storyline/internal/http"
	"storyline/internal/indexer"
	"storyline/internal/llm"
	"storyline/internal/media"
	"storyline/internal/metrics"
	"storyline/internal/service"
	"storyline/internal/storage"
	"storyline/internal/suggest"
	"storyline/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API edits story timelines: ordered scenes, their characters and
// media, with inline writing suggestions from a language model.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Storyline API
//   description: |
//     Scene timeline editing API. Stories are opened into workspaces,
//     edited through scene and character endpoints, and saved back to storage.
//     Suggestion and media services are optional collaborators.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTimeout)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)

	engineOpts := service.Options{
		Stories:    storage.NewStoryRepo(db),
		Characters: storage.NewCharacterRepo(db),
		Generator:  llmClient,
		Suggest: suggest.Config{
			Delay:     cfg.SuggestDebounce,
			MinLength: cfg.SuggestMinChars,
			Timeout:   cfg.LLMTimeout,
		},
		OverviewPageSize: cfg.OverviewPageSize,
		DetailPageSize:   cfg.DetailPageSize,
	}

	if cfg.FeedbackURL != "" {
		engineOpts.Feedback = llm.NewFeedbackClient(cfg.FeedbackURL, cfg.LLMTimeout)
		slog.Info("Suggestion feedback enabled", "url", cfg.FeedbackURL)
	}
	if cfg.MediaURL != "" {
		engineOpts.Media = media.NewClient(cfg.MediaURL, cfg.LLMTimeout)
		slog.Info("Media uploads enabled", "url", cfg.MediaURL)
	}

	// The health handler takes an interface; leave it nil rather than a nil *QdrantStore.
	var collections handlers.CollectionChecker
	if cfg.IndexEnabled() {
		vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}

		// Ensure collection exists with correct vector size
		if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection: %v", err)
		}
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

		// Validate embedding client vector size (fail-fast)
		embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
		if _, err := embedder.EmbedTexts(ctx, []string{"test"}); err != nil {
			log.Fatalf("Failed to validate embedding client: %v", err)
		}
		slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

		engineOpts.Index = indexer.NewSceneIndex(embedder, vectorStore, cfg.QdrantCollection)
		collections = vectorStore
	} else {
		slog.Info("Related-scene index disabled", "reason", "QDRANT_VECTOR_SIZE is 0")
	}

	hub := events.NewHub()
	go hub.Run(ctx)
	engineOpts.Events = hub

	engine := service.NewEngine(engineOpts)
	defer engine.Shutdown()

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		Engine:  engine,
		Health:  handlers.NewHealthHandler(db, collections, cfg.QdrantCollection),
		Events:  hub,
		Metrics: metrics.Handler(),
	})

	// Start API server
	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
