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

	"subject-tutor/internal/config"
	"subject-tutor/internal/extract"
	"subject-tutor/internal/http"
	"subject-tutor/internal/indexer"
	"subject-tutor/internal/library"
	"subject-tutor/internal/llm"
	"subject-tutor/internal/rag"
	"subject-tutor/internal/service"
	"subject-tutor/internal/storage"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers study questions from uploaded PDFs and web pages, one subject at a time.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Subject Tutor API
//   description: |
//     Retrieval-augmented study assistant. Documents are split into overlapping chunks,
//     matched to questions by keyword overlap within a subject, and cited in the answers.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
// produces:
//   - application/json

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

	// Create repository instances
	documentRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	pipeline := indexer.NewPipeline(documentRepo, chunkRepo)
	fetcher := extract.NewFetcher(extract.FetcherConfig{
		Timeout:       cfg.FetchTimeout,
		RatePerSecond: cfg.FetchRatePerSecond,
	})
	loader := library.NewLoader(pipeline, fetcher)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	llmClient.Temperature = cfg.LLMTemperature

	ragEngine := rag.NewEngine(chunkRepo, llmClient, cfg.RetrievalTopK)
	chatService := service.NewChatService(ragEngine)
	slog.Info("RAG engine initialized", "top_k", cfg.RetrievalTopK)

	router := http.NewRouter(&http.Deps{
		ChatService:    chatService,
		Collection:     pipeline,
		Fetcher:        fetcher,
		Library:        loader,
		ManifestPath:   cfg.LibraryManifest,
		DB:             db,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seed the library in background after router is ready
	if cfg.LibraryManifest != "" {
		go func() {
			sources, err := library.LoadManifest(cfg.LibraryManifest)
			if err != nil {
				slog.Error("Failed to load library manifest", "path", cfg.LibraryManifest, "error", err)
				return
			}
			slog.Info("Starting background ingestion of library", "sources", len(sources))
			if _, err := loader.IngestAll(ctx, sources); err != nil {
				slog.Error("Library ingestion completed with errors", "error", err)
			}
		}()
	}

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Starting API server", "addr", server.Addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
