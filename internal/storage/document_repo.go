package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// DocumentStore defines the interface for document and chunk storage operations.
type DocumentStore interface {
	// InsertDocument inserts a document and returns its generated id.
	InsertDocument(ctx context.Context, titulo, entidad, archivo string, metadata map[string]any) (int64, error)
	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]Document, error)
	// GetDocument gets a document by id. Returns ErrNotFound if not found.
	GetDocument(ctx context.Context, docID int64) (*Document, error)
	// InsertChunks inserts a batch of chunks for a document with contiguous
	// ordinals starting at 0, in the order given. Returns the inserted count.
	InsertChunks(ctx context.Context, docID int64, texts []string, vectors [][]float32) (int, error)
	// FetchAllVectors returns every stored chunk joined with its document
	// title, ordered by (doc_id, ord).
	FetchAllVectors(ctx context.Context) ([]ChunkVector, error)
	// FetchDocumentText reconstructs a document's text by joining its chunks
	// in ordinal order.
	FetchDocumentText(ctx context.Context, docID int64) (string, error)
}

// DocumentRepo provides methods for document and chunk operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// InsertDocument inserts a document and returns its generated id.
// Empty entidad/archivo are stored as NULL.
func (r *DocumentRepo) InsertDocument(ctx context.Context, titulo, entidad, archivo string, metadata map[string]any) (int64, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to encode metadata: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (titulo, entidad, archivo, metadata) VALUES (?, ?, ?, ?)",
		titulo, nullable(entidad), nullable(archivo), string(meta),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read document id: %w", err)
	}
	return id, nil
}

// ListDocuments returns all documents, newest first.
func (r *DocumentRepo) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT doc_id, titulo, COALESCE(entidad, ''), COALESCE(archivo, ''), COALESCE(metadata, '') FROM documents ORDER BY doc_id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []Document
	for rows.Next() {
		var d Document
		var metaRaw string
		if err := rows.Scan(&d.DocID, &d.Titulo, &d.Entidad, &d.Archivo, &metaRaw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.Metadata = decodeMetadata(metaRaw)
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// GetDocument gets a document by id. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetDocument(ctx context.Context, docID int64) (*Document, error) {
	var d Document
	var metaRaw string
	err := r.db.QueryRowContext(ctx,
		"SELECT doc_id, titulo, COALESCE(entidad, ''), COALESCE(archivo, ''), COALESCE(metadata, '') FROM documents WHERE doc_id = ?",
		docID,
	).Scan(&d.DocID, &d.Titulo, &d.Entidad, &d.Archivo, &metaRaw)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	d.Metadata = decodeMetadata(metaRaw)
	return &d, nil
}

// InsertChunks inserts a batch of chunks for a document. Ordinals are assigned
// from the slice positions, so they are contiguous and start at 0.
func (r *DocumentRepo) InsertChunks(ctx context.Context, docID int64, texts []string, vectors [][]float32) (int, error) {
	if len(texts) != len(vectors) {
		return 0, fmt.Errorf("texts/vectors length mismatch: %d vs %d", len(texts), len(vectors))
	}
	if len(texts) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (doc_id, ord, text, emb_json) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, text := range texts {
		emb, err := encodeVector(vectors[i])
		if err != nil {
			return 0, fmt.Errorf("failed to encode embedding %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, docID, i, text, emb); err != nil {
			return 0, fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit chunks: %w", err)
	}
	return len(texts), nil
}

// FetchAllVectors returns every stored chunk joined with its document title,
// ordered by (doc_id, ord). This is the ranker's full-scan input.
func (r *DocumentRepo) FetchAllVectors(ctx context.Context) ([]ChunkVector, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.chunk_id, c.doc_id, c.ord, c.text, c.emb_json, d.titulo
		FROM chunks c
		JOIN documents d ON d.doc_id = c.doc_id
		ORDER BY c.doc_id, c.ord`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []ChunkVector
	for rows.Next() {
		var cv ChunkVector
		var embRaw string
		if err := rows.Scan(&cv.ChunkID, &cv.DocID, &cv.Ord, &cv.Text, &embRaw, &cv.Titulo); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		cv.Embedding = decodeVector(embRaw)
		out = append(out, cv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// FetchDocumentText reconstructs a document's text by joining its chunks in order.
func (r *DocumentRepo) FetchDocumentText(ctx context.Context, docID int64) (string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT text FROM chunks WHERE doc_id = ? ORDER BY ord ASC",
		docID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to query chunk texts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var parts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return "", fmt.Errorf("failed to scan chunk text: %w", err)
		}
		parts = append(parts, text)
	}

	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("row iteration error: %w", err)
	}

	return strings.Join(parts, "\n"), nil
}

// nullable maps an empty string to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
