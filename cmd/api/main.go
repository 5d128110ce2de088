package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"secop-rag/internal/config"
	"secop-rag/internal/http"
	"secop-rag/internal/indexer"
	"secop-rag/internal/ingest"
	"secop-rag/internal/llm"
	"secop-rag/internal/rag"
	"secop-rag/internal/secop"
	"secop-rag/internal/storage"
)

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
	slog.SetDefault(slog.New(handler))
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
	docRepo := storage.NewDocumentRepo(db)
	contractRepo := storage.NewContractRepo(db)

	// Pick the embeddings backend. Without an API key the service runs fully
	// offline on deterministic hash embeddings.
	var (
		embedder    llm.Embedder
		chat        rag.ChatBackend
		llmProvider string
	)
	if cfg.LLMConfigured() {
		embedder = llm.NewOpenAIEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbedModel)
		chat = llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel)
		llmProvider = "openai"
		slog.Info("LLM backend configured", "chat_model", cfg.ChatModel, "embed_model", cfg.EmbedModel)
	} else {
		embedder = llm.NewOfflineEmbedder(cfg.EmbeddingsDim)
		llmProvider = "offline"
		slog.Info("Running in offline mode", "embeddings_dim", cfg.EmbeddingsDim)
	}

	// Open data client
	secopClient := secop.NewClient(cfg.SecopBaseURL)

	// Auto-ingestion over the trusted source catalog
	ingestor := ingest.NewController(docRepo, embedder, cfg.OriginalsDir, cfg.ChunkMaxSize, cfg.ChunkOverlap)

	// Contract loading pipeline
	pipeline := indexer.NewContractPipeline(contractRepo, secopClient, embedder, cfg.ChunkMaxSize, cfg.ChunkOverlap)

	// RAG engine
	engine := rag.NewEngine(docRepo, embedder, chat, ingestor, secopClient, rag.Options{
		ContextBudget:   cfg.ContextBudget,
		HeuristicBudget: cfg.HeuristicBudget,
		AnswerMinScore:  cfg.AnswerMinScore,
	})
	slog.Info("RAG engine initialized", "provider", llmProvider)

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		DB:           db,
		Documents:    docRepo,
		Contracts:    contractRepo,
		Engine:       engine,
		Pipeline:     pipeline,
		SecopClient:  secopClient,
		LLMProvider:  llmProvider,
		OriginalsDir: cfg.OriginalsDir,
	})

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
