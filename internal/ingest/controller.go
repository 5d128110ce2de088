// Package ingest grows the document corpus on demand: when a question
// arrives, it decides which trusted sources to fetch and index so that
// retrieval has something relevant to work with.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"secop-rag/internal/contextutil"
	"secop-rag/internal/indexer"
	"secop-rag/internal/llm"
	"secop-rag/internal/parser"
	"secop-rag/internal/storage"
)

// TextExtractor turns fetched PDF bytes into plain text. Injectable so tests
// can supply a stub extractor.
type TextExtractor func(data []byte) (string, error)

// Controller decides which catalog sources to fetch and indexes them.
// Ingestion is best-effort end to end: a failing candidate is skipped, never
// surfaced to the question-answering flow.
type Controller struct {
	docs         storage.DocumentStore
	embedder     llm.Embedder
	catalog      []Source
	originalsDir string
	client       *http.Client
	extract      TextExtractor
	chunkSize    int
	chunkOverlap int
}

// NewController creates an ingestion controller over the trusted catalog.
func NewController(docs storage.DocumentStore, embedder llm.Embedder, originalsDir string, chunkSize, chunkOverlap int) *Controller {
	return &Controller{
		docs:         docs,
		embedder:     embedder,
		catalog:      TrustedSources,
		originalsDir: originalsDir,
		client:       &http.Client{Timeout: 30 * time.Second},
		extract:      parser.ExtractText,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// WithCatalog replaces the candidate catalog. Used by tests.
func (c *Controller) WithCatalog(catalog []Source) *Controller {
	c.catalog = catalog
	return c
}

// WithExtractor replaces the PDF text extractor. Used by tests.
func (c *Controller) WithExtractor(extract TextExtractor) *Controller {
	c.extract = extract
	return c
}

// outcome records one ingestion attempt for a catalog candidate.
type outcome struct {
	src Source
	err error
}

// EnsureCoverage ingests up to need catalog sources relevant to the question
// that are not already stored. Returns how many sources were ingested.
func (c *Controller) EnsureCoverage(ctx context.Context, question string, need int) int {
	logger := contextutil.LoggerFromContext(ctx)

	if need <= 0 {
		need = 1
	}

	existing := c.existingURLs(ctx)
	// Consider every matching candidate so a failed fetch can be replaced by
	// the next best one; attempts stop once enough sources are in.
	candidates := c.pickCandidates(question, len(c.catalog))

	var outcomes []outcome
	for _, cand := range candidates {
		if countIngested(outcomes) >= need {
			break
		}
		if cand.URL == "" {
			continue
		}
		if _, ok := existing[cand.URL]; ok {
			continue
		}
		outcomes = append(outcomes, outcome{src: cand, err: c.ingestOne(ctx, cand)})
	}

	for _, o := range outcomes {
		if o.err != nil {
			logger.WarnContext(ctx, "candidate ingestion skipped",
				"titulo", o.src.Titulo,
				"error", o.err,
			)
		}
	}
	return countIngested(outcomes)
}

func countIngested(outcomes []outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.err == nil {
			n++
		}
	}
	return n
}

// existingURLs recomputes the set of already-ingested source URLs from
// document metadata. Malformed metadata counts as absent, and a storage
// failure simply yields an empty set.
func (c *Controller) existingURLs(ctx context.Context) map[string]struct{} {
	urls := make(map[string]struct{})
	docs, err := c.docs.ListDocuments(ctx)
	if err != nil {
		return urls
	}
	for _, d := range docs {
		if raw, ok := d.Metadata["url"]; ok {
			if u, ok := raw.(string); ok && strings.TrimSpace(u) != "" {
				urls[strings.TrimSpace(u)] = struct{}{}
			}
		}
	}
	return urls
}

// pickCandidates scores catalog entries by how many of their keywords appear
// in the lowercased question (case-insensitive substring match; a heuristic,
// not stemmed) and returns up to need entries with score > 0, highest first.
// Ties keep catalog order.
func (c *Controller) pickCandidates(question string, need int) []Source {
	q := strings.ToLower(question)

	type scored struct {
		score int
		src   Source
	}
	all := make([]scored, 0, len(c.catalog))
	for _, src := range c.catalog {
		score := 0
		for _, kw := range src.Keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				score++
			}
		}
		if score > 0 {
			all = append(all, scored{score: score, src: src})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})

	out := make([]Source, 0, need)
	for _, s := range all {
		out = append(out, s.src)
		if len(out) >= need {
			break
		}
	}
	return out
}

// ingestOne fetches one candidate and indexes it: verify it really is a PDF,
// create the document, save the raw bytes, extract text, chunk, embed and
// insert the chunks.
func (c *Controller) ingestOne(ctx context.Context, cand Source) error {
	req, err := http.NewRequestWithContext(ctx, "GET", cand.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if !strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "pdf") {
		return fmt.Errorf("not a pdf: content-type %q", resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	text, err := c.extract(data)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	chunks := indexer.SplitText(text, c.chunkSize, c.chunkOverlap)
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks extracted")
	}

	vectors, err := c.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	docID, err := c.docs.InsertDocument(ctx, cand.Titulo, cand.Entidad, "",
		map[string]any{"tipo": "pdf", "url": cand.URL})
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	// Keep the original bytes so downloads can serve the source file.
	if c.originalsDir != "" {
		path := filepath.Join(c.originalsDir, fmt.Sprintf("doc_%d.pdf", docID))
		if err := os.WriteFile(path, data, 0644); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to save original pdf",
				"doc_id", docID, "error", err)
		}
	}

	if _, err := c.docs.InsertChunks(ctx, docID, chunks, vectors); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// CreateErrorNote persists an answer as a synthetic autogenerated document so
// a document reference always exists for traceability and export.
func (c *Controller) CreateErrorNote(ctx context.Context, question, answer string) (int64, error) {
	if strings.TrimSpace(answer) == "" {
		answer = "Respuesta generada sin fuentes."
	}

	chunks := indexer.SplitText(answer, c.chunkSize, c.chunkOverlap)
	if len(chunks) == 0 {
		chunks = []string{answer}
	}

	vectors, err := c.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed note: %w", err)
	}

	docID, err := c.docs.InsertDocument(ctx, "Nota sin fuentes (autogenerada)", "Sistema", "",
		map[string]any{"tipo": "nota", "autogenerado": true, "q": question})
	if err != nil {
		return 0, fmt.Errorf("insert note document: %w", err)
	}

	if _, err := c.docs.InsertChunks(ctx, docID, chunks, vectors); err != nil {
		return 0, fmt.Errorf("insert note chunks: %w", err)
	}
	return docID, nil
}
