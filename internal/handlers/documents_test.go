package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"secop-rag/internal/storage"
)

// stubDocStore serves canned documents and chunks.
type stubDocStore struct {
	docs    []storage.Document
	vectors []storage.ChunkVector
	texts   map[int64]string
}

func (s *stubDocStore) InsertDocument(ctx context.Context, titulo, entidad, archivo string, metadata map[string]any) (int64, error) {
	return 0, nil
}

func (s *stubDocStore) ListDocuments(ctx context.Context) ([]storage.Document, error) {
	return s.docs, nil
}

func (s *stubDocStore) GetDocument(ctx context.Context, docID int64) (*storage.Document, error) {
	for i := range s.docs {
		if s.docs[i].DocID == docID {
			return &s.docs[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *stubDocStore) InsertChunks(ctx context.Context, docID int64, texts []string, vectors [][]float32) (int, error) {
	return 0, nil
}

func (s *stubDocStore) FetchAllVectors(ctx context.Context) ([]storage.ChunkVector, error) {
	return s.vectors, nil
}

func (s *stubDocStore) FetchDocumentText(ctx context.Context, docID int64) (string, error) {
	return s.texts[docID], nil
}

func TestDocumentsList(t *testing.T) {
	store := &stubDocStore{
		docs: []storage.Document{
			{DocID: 2, Titulo: "Segundo", Metadata: map[string]any{"tipo": "pdf"}},
			{DocID: 1, Titulo: "Primero", Metadata: map[string]any{}},
		},
		vectors: []storage.ChunkVector{
			{ChunkID: 1, DocID: 1}, {ChunkID: 2, DocID: 1}, {ChunkID: 3, DocID: 2},
		},
	}
	handler := NewDocumentsHandler(store, "")

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Ok || resp.TotalDocuments != 2 || resp.TotalChunks != 3 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Documents[0].Chunks != 1 || resp.Documents[1].Chunks != 2 {
		t.Errorf("chunk counts = %d,%d", resp.Documents[0].Chunks, resp.Documents[1].Chunks)
	}
}

func TestDownload_BadDocID(t *testing.T) {
	handler := NewDocumentsHandler(&stubDocStore{}, "")

	rec := httptest.NewRecorder()
	handler.Download(rec, httptest.NewRequest(http.MethodGet, "/download?doc_id=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDownload_NotFound(t *testing.T) {
	handler := NewDocumentsHandler(&stubDocStore{}, "")

	rec := httptest.NewRecorder()
	handler.Download(rec, httptest.NewRequest(http.MethodGet, "/download?doc_id=99", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Documento no encontrado.") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDownload_ServesOriginalPDF(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doc_5.pdf"), []byte("%PDF-1.4 contenido"), 0644); err != nil {
		t.Fatalf("write original: %v", err)
	}

	store := &stubDocStore{docs: []storage.Document{{DocID: 5, Titulo: "Guía"}}}
	handler := NewDocumentsHandler(store, dir)

	rec := httptest.NewRecorder()
	handler.Download(rec, httptest.NewRequest(http.MethodGet, "/download?doc_id=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDownload_ReconstructsFromChunks(t *testing.T) {
	store := &stubDocStore{
		docs:  []storage.Document{{DocID: 7, Titulo: "Nota"}},
		texts: map[int64]string{7: "contenido reconstruido"},
	}
	handler := NewDocumentsHandler(store, t.TempDir())

	rec := httptest.NewRecorder()
	handler.Download(rec, httptest.NewRequest(http.MethodGet, "/download?doc_id=7", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Nota") || !strings.Contains(body, "contenido reconstruido") {
		t.Errorf("body = %q", body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Reconstruido_7.txt") {
		t.Errorf("disposition = %q", cd)
	}
}
