package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"secop-rag/internal/contextutil"
)

// HealthHandler reports service liveness and storage reachability.
type HealthHandler struct {
	db                 *sql.DB
	llmProvider        string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. llmProvider is the active
// model backend name, or empty when running offline.
func NewHealthHandler(db *sql.DB, llmProvider string) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		llmProvider:        llmProvider,
		healthCheckTimeout: 5 * time.Second,
	}
}

// PingResponse is the lightweight liveness payload.
type PingResponse struct {
	Message string `json:"message"`
	DB      string `json:"db"`
	LLM     string `json:"llm"`
}

// Ping answers GET /ping.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	llm := h.llmProvider
	if llm == "" {
		llm = "none"
	}
	writeJSON(w, http.StatusOK, PingResponse{Message: "pong", DB: "sqlite", LLM: llm})
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Issues    []string          `json:"issues,omitempty"`
}

// Health answers GET /api/health. Returns 200 when storage is reachable,
// 503 otherwise. The model backend is optional, so it is reported but never
// fails the check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if err := h.db.PingContext(checkCtx); err != nil {
		logger.WarnContext(ctx, "storage health check failed", "error", err)
		checks["storage"] = "error"
		issues = append(issues, "storage_unavailable")
	} else {
		checks["storage"] = "ok"
	}

	if h.llmProvider != "" {
		checks["llm"] = h.llmProvider
	} else {
		checks["llm"] = "offline"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}
