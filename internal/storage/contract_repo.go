package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// codeFields are tried in order when deriving a contract's unique code.
var codeFields = []string{
	"codigo_de_secop",
	"numero_del_proceso",
	"referencia_del_contrato",
	"id_contrato",
}

// DeriveUniqueCode derives the stable unique code for a contract record.
// It uses the first non-empty identifier field, falling back to a generated
// sequence code so re-runs over the same source data stay idempotent.
func DeriveUniqueCode(record map[string]any, index int) string {
	for _, field := range codeFields {
		if v, ok := record[field]; ok {
			if s := strings.TrimSpace(fmt.Sprintf("%v", v)); s != "" && v != nil {
				return s
			}
		}
	}
	return fmt.Sprintf("SEC-%06d", index)
}

// IndexableText extracts the salient fields of a contract record into the
// labeled text used for chunking and embedding.
func IndexableText(record map[string]any) string {
	var parts []string

	for _, key := range []string{"departamento", "departamento_entidad", "departamento_ejecucion"} {
		if v := stringField(record, key); v != "" {
			parts = append(parts, "Departamento: "+v)
			break
		}
	}

	if v := stringField(record, "descripcion_del_proceso"); v != "" {
		parts = append(parts, "Descripción: "+v)
	}

	for _, key := range []string{"objeto_del_contrato", "objeto_a_contratar", "detalle_del_objeto_a_contratar"} {
		if v := stringField(record, key); v != "" {
			parts = append(parts, "Objeto: "+v)
			break
		}
	}

	if v := stringField(record, "nombre_entidad"); v != "" {
		parts = append(parts, "Entidad: "+v)
	}

	return strings.Join(parts, "\n")
}

func stringField(record map[string]any, key string) string {
	v, ok := record[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

// ContractStore defines the interface for contract storage operations.
type ContractStore interface {
	// UpsertContract inserts a contract record, replacing any prior row with
	// the same derived unique code. Returns the code.
	UpsertContract(ctx context.Context, record map[string]any, index int) (string, error)
	// ReplaceEmbeddings deletes any prior embeddings for the code and inserts
	// the given chunk/vector pairs. Returns the inserted count.
	ReplaceEmbeddings(ctx context.Context, codigoUnico string, chunks []string, vectors [][]float32) (int, error)
	// GetContract gets a contract by unique code. Returns ErrNotFound if not found.
	GetContract(ctx context.Context, codigoUnico string) (*Contract, error)
	// ListContracts returns a page of contracts, newest first.
	ListContracts(ctx context.Context, limit, offset int) ([]ContractSummary, error)
	// CountContracts returns the number of stored contracts.
	CountContracts(ctx context.Context) (int, error)
	// FetchAllEmbeddings returns every contract embedding ordered by
	// (codigo_unico, chunk_ord).
	FetchAllEmbeddings(ctx context.Context) ([]ContractEmbedding, error)
}

// ContractRepo provides methods for contract operations.
// It implements the ContractStore interface.
type ContractRepo struct {
	db *sql.DB
}

// NewContractRepo creates a new ContractRepo.
func NewContractRepo(db *sql.DB) *ContractRepo {
	return &ContractRepo{db: db}
}

// UpsertContract inserts a contract record with INSERT OR REPLACE semantics
// keyed on the derived unique code.
func (r *ContractRepo) UpsertContract(ctx context.Context, record map[string]any, index int) (string, error) {
	codigo := DeriveUniqueCode(record, index)

	total, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode contract record: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO contratos (codigo_unico, texto_total, texto_indexar) VALUES (?, ?, ?)",
		codigo, string(total), IndexableText(record),
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert contract: %w", err)
	}
	return codigo, nil
}

// ReplaceEmbeddings deletes prior embeddings for the code and inserts the new batch.
func (r *ContractRepo) ReplaceEmbeddings(ctx context.Context, codigoUnico string, chunks []string, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunks/vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM contrato_embeddings WHERE codigo_unico = ?", codigoUnico); err != nil {
		return 0, fmt.Errorf("failed to delete prior embeddings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO contrato_embeddings (codigo_unico, chunk_ord, chunk_text, emb_json) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare embedding insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, chunk := range chunks {
		emb, err := encodeVector(vectors[i])
		if err != nil {
			return 0, fmt.Errorf("failed to encode embedding %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, codigoUnico, i, chunk, emb); err != nil {
			return 0, fmt.Errorf("failed to insert embedding %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit embeddings: %w", err)
	}
	return len(chunks), nil
}

// GetContract gets a contract by unique code. Returns ErrNotFound if not found.
func (r *ContractRepo) GetContract(ctx context.Context, codigoUnico string) (*Contract, error) {
	var c Contract
	var totalRaw string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, codigo_unico, texto_total, texto_indexar, created_at FROM contratos WHERE codigo_unico = ?",
		codigoUnico,
	).Scan(&c.ID, &c.CodigoUnico, &totalRaw, &c.TextoIndexar, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query contract: %w", err)
	}

	c.TextoTotal = decodeMetadata(totalRaw)
	return &c, nil
}

// ListContracts returns a page of contracts, newest first.
func (r *ContractRepo) ListContracts(ctx context.Context, limit, offset int) ([]ContractSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, codigo_unico, texto_indexar, created_at FROM contratos ORDER BY id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []ContractSummary
	for rows.Next() {
		var c ContractSummary
		if err := rows.Scan(&c.ID, &c.CodigoUnico, &c.TextoIndexar, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// CountContracts returns the number of stored contracts.
func (r *ContractRepo) CountContracts(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contratos").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}
	return n, nil
}

// FetchAllEmbeddings returns every contract embedding for vector search.
func (r *ContractRepo) FetchAllEmbeddings(ctx context.Context) ([]ContractEmbedding, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT codigo_unico, chunk_ord, chunk_text, emb_json FROM contrato_embeddings ORDER BY codigo_unico, chunk_ord",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract embeddings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []ContractEmbedding
	for rows.Next() {
		var e ContractEmbedding
		var embRaw string
		if err := rows.Scan(&e.CodigoUnico, &e.ChunkOrd, &e.ChunkText, &embRaw); err != nil {
			return nil, fmt.Errorf("failed to scan contract embedding: %w", err)
		}
		e.Embedding = decodeVector(embRaw)
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}
