package handlers

import (
	"encoding/json"
	"net/http"

	"secop-rag/internal/contextutil"
	"secop-rag/internal/rag"
)

// AskHandler handles question-answering requests.
type AskHandler struct {
	engine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine rag.Engine) *AskHandler {
	return &AskHandler{engine: engine}
}

// ServeHTTP answers POST /ask. Well-formed input always gets a 200 with a
// structured response; degraded outcomes (empty query, empty corpus,
// internal errors) arrive as normal answers, never as transport failures.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req rag.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp := h.engine.Ask(ctx, req)

	logger.InfoContext(ctx, "question answered",
		"matches", len(resp.Matches),
		"answer_length", len(resp.Answer),
		"secop_data", resp.SecopDataIncluded,
	)

	writeJSON(w, http.StatusOK, resp)
}
