package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"secop-rag/internal/contextutil"
	"secop-rag/internal/storage"
)

// DocumentsHandler exposes the document inventory and original downloads.
type DocumentsHandler struct {
	docs         storage.DocumentStore
	originalsDir string
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(docs storage.DocumentStore, originalsDir string) *DocumentsHandler {
	return &DocumentsHandler{docs: docs, originalsDir: originalsDir}
}

// DocumentInfo is one inventory row.
type DocumentInfo struct {
	DocID    int64          `json:"doc_id"`
	Titulo   string         `json:"titulo"`
	Entidad  string         `json:"entidad,omitempty"`
	Metadata map[string]any `json:"metadata"`
	Chunks   int            `json:"chunks"`
}

// ListResponse is the inventory payload.
type ListResponse struct {
	Ok             bool           `json:"ok"`
	TotalDocuments int            `json:"total_documents"`
	TotalChunks    int            `json:"total_chunks"`
	Documents      []DocumentInfo `json:"documents"`
}

// List answers GET /documents with each document's chunk count.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := h.docs.ListDocuments(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	vectors, err := h.docs.FetchAllVectors(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch vectors", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to count chunks")
		return
	}

	counts := make(map[int64]int)
	for _, v := range vectors {
		counts[v.DocID]++
	}

	out := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentInfo{
			DocID:    d.DocID,
			Titulo:   d.Titulo,
			Entidad:  d.Entidad,
			Metadata: d.Metadata,
			Chunks:   counts[d.DocID],
		})
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Ok:             true,
		TotalDocuments: len(out),
		TotalChunks:    len(vectors),
		Documents:      out,
	})
}

// Download answers GET /download?doc_id=N. It streams the stored original
// PDF when present; otherwise it serves the document text reconstructed from
// chunks as a plain-text attachment.
func (h *DocumentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	docID, err := strconv.ParseInt(r.URL.Query().Get("doc_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "doc_id must be an integer")
		return
	}

	doc, err := h.docs.GetDocument(ctx, docID)
	if err == storage.ErrNotFound {
		writeError(w, http.StatusNotFound, "Documento no encontrado.")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to load document", "doc_id", docID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load document")
		return
	}

	localPath := filepath.Join(h.originalsDir, fmt.Sprintf("doc_%d.pdf", docID))
	if f, err := os.Open(localPath); err == nil {
		defer func() {
			_ = f.Close()
		}()
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(localPath)))
		_, _ = io.Copy(w, f)
		return
	}

	// Original file is gone; rebuild the content from stored chunks.
	fullText, err := h.docs.FetchDocumentText(ctx, docID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to reconstruct document text", "doc_id", docID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to reconstruct document")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("Reconstruido_%d.txt", docID)))
	_, _ = io.WriteString(w, doc.Titulo+"\n\n"+fullText)
}
