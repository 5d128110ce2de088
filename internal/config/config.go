package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort string

	// Storage
	DBPath       string
	OriginalsDir string

	// LLM / embeddings backend. When OpenAIAPIKey is empty the service runs
	// with the offline deterministic embedder and the heuristic answerer.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string
	EmbedModel    string
	EmbeddingsDim int

	// Chunking
	ChunkMaxSize int
	ChunkOverlap int

	// Context budgets (characters)
	ContextBudget   int
	HeuristicBudget int

	// AnswerMinScore flags low-confidence answers in logs. Zero disables it.
	AnswerMinScore float64

	// SECOP open data
	SecopBaseURL string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the numeric ones.
// If a .env file exists in the current directory or a parent, it is loaded
// automatically; variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few levels looking for a project-root .env
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:       getEnv("API_PORT", "8000"),
		DBPath:        getEnv("DB_PATH", "./data/app.sqlite3"),
		OriginalsDir:  getEnv("ORIGINALS_DIR", "./data/originals"),
		OpenAIAPIKey:  strings.Trim(strings.TrimSpace(os.Getenv("OPENAI_API_KEY")), `"`),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		ChatModel:     getEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbedModel:    getEnv("EMBED_MODEL", "text-embedding-3-small"),
		SecopBaseURL:  getEnv("SECOP_API_BASE", "https://www.datos.gov.co/resource/jbjy-vk9h.json"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}

	var parseErr error
	cfg.EmbeddingsDim = getEnvInt("EMBEDDINGS_DIM", 512, &parseErr)
	cfg.ChunkMaxSize = getEnvInt("CHUNK_MAX_SIZE", 1000, &parseErr)
	cfg.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", 150, &parseErr)
	cfg.ContextBudget = getEnvInt("CONTEXT_BUDGET", 4000, &parseErr)
	cfg.HeuristicBudget = getEnvInt("HEURISTIC_BUDGET", 1200, &parseErr)
	if parseErr != nil {
		return nil, parseErr
	}

	if cfg.EmbeddingsDim <= 0 {
		return nil, fmt.Errorf("EMBEDDINGS_DIM must be greater than 0")
	}
	if cfg.ChunkMaxSize <= 0 {
		return nil, fmt.Errorf("CHUNK_MAX_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkMaxSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_MAX_SIZE)")
	}

	if raw := os.Getenv("ANSWER_MIN_SCORE"); raw != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("ANSWER_MIN_SCORE must be a valid float: %w", err)
		}
		cfg.AnswerMinScore = v
	}

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn", "warning":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	// Create data directories up front so the sqlite file and saved PDFs
	// have somewhere to live.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.OriginalsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create originals directory: %w", err)
	}

	return cfg, nil
}

// LLMConfigured reports whether a model backend is available.
func (c *Config) LLMConfigured() bool {
	return c.OpenAIAPIKey != ""
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
// The first parse failure is recorded in *errOut.
func getEnvInt(key string, defaultValue int, errOut *error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		if *errOut == nil {
			*errOut = fmt.Errorf("%s must be a valid integer: %w", key, err)
		}
		return defaultValue
	}
	return v
}
