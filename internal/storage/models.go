package storage

import (
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// Document represents an ingested source document (web PDF or synthetic note).
type Document struct {
	DocID    int64          `json:"doc_id"`
	Titulo   string         `json:"titulo"`
	Entidad  string         `json:"entidad,omitempty"`
	Archivo  string         `json:"archivo,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

// ChunkVector is one stored chunk joined with its document title,
// as consumed by the similarity ranker.
type ChunkVector struct {
	ChunkID   int64
	DocID     int64
	Ord       int
	Text      string
	Embedding []float32
	Titulo    string
}

// Contract represents a structured procurement record loaded from open data.
type Contract struct {
	ID           int64          `json:"id"`
	CodigoUnico  string         `json:"codigo_unico"`
	TextoTotal   map[string]any `json:"texto_total"`
	TextoIndexar string         `json:"texto_indexar"`
	CreatedAt    string         `json:"created_at"`
}

// ContractSummary is the paginated listing row for contracts.
type ContractSummary struct {
	ID           int64  `json:"id"`
	CodigoUnico  string `json:"codigo_unico"`
	TextoIndexar string `json:"texto_indexar"`
	CreatedAt    string `json:"created_at"`
}

// ContractEmbedding is one stored contract chunk with its vector,
// keyed by contract unique code and local ordinal.
type ContractEmbedding struct {
	CodigoUnico string
	ChunkOrd    int
	ChunkText   string
	Embedding   []float32
}

// encodeVector serializes an embedding as a compact JSON array.
func encodeVector(vec []float32) (string, error) {
	if vec == nil {
		vec = []float32{}
	}
	b, err := json.Marshal(vec)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeVector parses a stored embedding. Unreadable payloads decode to an
// empty vector rather than failing the whole fetch.
func decodeVector(raw string) []float32 {
	if raw == "" {
		return []float32{}
	}
	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return []float32{}
	}
	return vec
}

// decodeMetadata parses a stored metadata blob, treating malformed JSON as empty.
func decodeMetadata(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil || meta == nil {
		return map[string]any{}
	}
	return meta
}
