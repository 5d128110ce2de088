package indexer

import (
	"context"
	"fmt"

	"secop-rag/internal/contextutil"
	"secop-rag/internal/llm"
	"secop-rag/internal/secop"
	"secop-rag/internal/storage"
)

// ContractSource supplies structured procurement records to load.
type ContractSource interface {
	SearchContracts(ctx context.Context, q secop.Query) []secop.Contract
}

// ContractPipeline loads open-data contract records into storage and
// maintains their embeddings.
type ContractPipeline struct {
	contracts    storage.ContractStore
	source       ContractSource
	embedder     llm.Embedder
	chunkSize    int
	chunkOverlap int
}

// NewContractPipeline creates a contract loading pipeline.
func NewContractPipeline(contracts storage.ContractStore, source ContractSource, embedder llm.Embedder, chunkSize, chunkOverlap int) *ContractPipeline {
	return &ContractPipeline{
		contracts:    contracts,
		source:       source,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// LoadResult reports the outcome of a contract load.
type LoadResult struct {
	Found    int `json:"encontrados"`
	Loaded   int `json:"cargados"`
	Embedded int `json:"con_embeddings"`
}

// Load fetches contracts matching the query, upserts each record (same
// derived unique code replaces the prior row) and, when withEmbeddings is
// set, re-embeds each record's indexable text. One bad record never aborts
// the batch.
func (p *ContractPipeline) Load(ctx context.Context, q secop.Query, withEmbeddings bool) LoadResult {
	logger := contextutil.LoggerFromContext(ctx)

	records := p.source.SearchContracts(ctx, q)
	result := LoadResult{Found: len(records)}

	for i, record := range records {
		codigo, err := p.contracts.UpsertContract(ctx, record, i+1)
		if err != nil {
			logger.WarnContext(ctx, "contract upsert failed", "index", i+1, "error", err)
			continue
		}
		result.Loaded++

		if !withEmbeddings {
			continue
		}
		if err := p.EmbedContract(ctx, codigo); err != nil {
			logger.WarnContext(ctx, "contract embedding failed", "codigo", codigo, "error", err)
			continue
		}
		result.Embedded++
	}

	return result
}

// EmbedContract chunks a contract's indexable text, embeds the chunks and
// fully replaces the record's prior embeddings.
func (p *ContractPipeline) EmbedContract(ctx context.Context, codigoUnico string) error {
	contract, err := p.contracts.GetContract(ctx, codigoUnico)
	if err != nil {
		return fmt.Errorf("get contract: %w", err)
	}

	chunks := SplitText(contract.TextoIndexar, p.chunkSize, p.chunkOverlap)
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := p.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	if _, err := p.contracts.ReplaceEmbeddings(ctx, codigoUnico, chunks, vectors); err != nil {
		return fmt.Errorf("replace embeddings: %w", err)
	}
	return nil
}
