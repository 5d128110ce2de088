package config

import (
	"log/slog"
	"path/filepath"
	"testing"
)

// setDataDirs points the data paths at a temp directory so Load's directory
// creation never touches the working tree.
func setDataDirs(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "app.sqlite3"))
	t.Setenv("ORIGINALS_DIR", filepath.Join(dir, "originals"))
}

func TestLoad_Defaults(t *testing.T) {
	setDataDirs(t)
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIPort != "8000" {
		t.Errorf("APIPort = %q", cfg.APIPort)
	}
	if cfg.EmbeddingsDim != 512 {
		t.Errorf("EmbeddingsDim = %d", cfg.EmbeddingsDim)
	}
	if cfg.ChunkMaxSize != 1000 || cfg.ChunkOverlap != 150 {
		t.Errorf("chunking = %d/%d", cfg.ChunkMaxSize, cfg.ChunkOverlap)
	}
	if cfg.ContextBudget != 4000 || cfg.HeuristicBudget != 1200 {
		t.Errorf("budgets = %d/%d", cfg.ContextBudget, cfg.HeuristicBudget)
	}
	if cfg.AnswerMinScore != 0 {
		t.Errorf("AnswerMinScore = %f, want disabled by default", cfg.AnswerMinScore)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
		t.Errorf("logging = %v/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.LLMConfigured() {
		t.Error("LLMConfigured() = true without an API key")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setDataDirs(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("OPENAI_API_KEY", `"sk-test"`)
	t.Setenv("CHUNK_MAX_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("ANSWER_MIN_SCORE", "0.35")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIPort != "9090" {
		t.Errorf("APIPort = %q", cfg.APIPort)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %q, want quotes stripped", cfg.OpenAIAPIKey)
	}
	if !cfg.LLMConfigured() {
		t.Error("LLMConfigured() = false with an API key")
	}
	if cfg.ChunkMaxSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunking = %d/%d", cfg.ChunkMaxSize, cfg.ChunkOverlap)
	}
	if cfg.AnswerMinScore != 0.35 {
		t.Errorf("AnswerMinScore = %f", cfg.AnswerMinScore)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
		t.Errorf("logging = %v/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-integer chunk size", key: "CHUNK_MAX_SIZE", value: "mil"},
		{name: "zero chunk size", key: "CHUNK_MAX_SIZE", value: "0"},
		{name: "negative overlap", key: "CHUNK_OVERLAP", value: "-1"},
		{name: "overlap >= chunk size", key: "CHUNK_OVERLAP", value: "1000"},
		{name: "bad min score", key: "ANSWER_MIN_SCORE", value: "alto"},
		{name: "bad log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "zero embeddings dim", key: "EMBEDDINGS_DIM", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDataDirs(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() succeeded with %s=%q", tt.key, tt.value)
			}
		})
	}
}
