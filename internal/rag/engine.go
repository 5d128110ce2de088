package rag

import (
	"context"
	"fmt"
	"strings"

	"secop-rag/internal/contextutil"
	"secop-rag/internal/llm"
	"secop-rag/internal/secop"
	"secop-rag/internal/storage"
)

// User-visible messages for defined degraded outcomes.
const (
	EmptyQueryMsg     = "Por favor, escribe una pregunta."
	NoDocumentsMsg    = "No hay documentos en la base de datos para responder. La búsqueda automática no encontró fuentes relevantes."
	InternalErrorMsg  = "Ocurrió un error inesperado al procesar la pregunta."
	answerSystemRules = "Responde en español de forma breve, directa y sustentada SOLO en el contexto dado. Si falta información, dilo y no inventes."
)

// topDocChunkCap bounds how many chunks of the best document feed the context.
const topDocChunkCap = 10

// quantitativeKeywords mark questions that benefit from open-data figures.
var quantitativeKeywords = []string{
	"cuánto", "cuántos", "cuantos", "estadística", "estadistica",
	"contratos de", "gasto", "gastó", "empresas que", "proveedores",
}

// Ingestor fills corpus coverage before retrieval and records error notes.
type Ingestor interface {
	// EnsureCoverage fetches up to need not-yet-ingested trusted sources
	// relevant to the question. Best effort; returns the ingested count.
	EnsureCoverage(ctx context.Context, question string, need int) int
	// CreateErrorNote persists a synthetic document holding an error message
	// so a document reference always exists for downstream export.
	CreateErrorNote(ctx context.Context, question, message string) (int64, error)
}

// ChatBackend produces a model-backed answer. nil means no backend configured.
type ChatBackend interface {
	Chat(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// ContractSearcher supplies open-data contract records for quantitative questions.
type ContractSearcher interface {
	SearchContracts(ctx context.Context, q secop.Query) []secop.Contract
}

// Options tune the engine's budgets and thresholds.
type Options struct {
	ContextBudget   int
	HeuristicBudget int
	// AnswerMinScore flags low-confidence answers in logs when > 0.
	AnswerMinScore float64
}

// Engine answers questions over the ingested corpus.
type Engine interface {
	// Ask runs the full retrieve-and-answer pipeline. It never fails for
	// ordinary input; degraded outcomes surface as normal answers.
	Ask(ctx context.Context, req AskRequest) AskResponse
}

type engine struct {
	docs     storage.DocumentStore
	embedder llm.Embedder
	chat     ChatBackend
	ingestor Ingestor
	secop    ContractSearcher
	opts     Options
}

// NewEngine creates an answer engine. chat may be nil (heuristic-only mode);
// secop may be nil to disable open-data context.
func NewEngine(docs storage.DocumentStore, embedder llm.Embedder, chat ChatBackend, ingestor Ingestor, contracts ContractSearcher, opts Options) Engine {
	if opts.ContextBudget <= 0 {
		opts.ContextBudget = DefaultContextBudget
	}
	if opts.HeuristicBudget <= 0 {
		opts.HeuristicBudget = DefaultHeuristicBudget
	}
	return &engine{
		docs:     docs,
		embedder: embedder,
		chat:     chat,
		ingestor: ingestor,
		secop:    contracts,
		opts:     opts,
	}
}

// Ask answers a question. Unexpected internal errors are captured as a
// synthetic zero-score document and returned as the answer instead of
// propagating, so the endpoint never sees a transport-level failure.
func (e *engine) Ask(ctx context.Context, req AskRequest) AskResponse {
	resp, err := e.ask(ctx, req)
	if err == nil {
		return resp
	}

	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "ask pipeline failed", "error", err)

	msg := InternalErrorMsg
	docID, noteErr := e.ingestor.CreateErrorNote(ctx, req.Query, msg)
	if noteErr != nil {
		logger.WarnContext(ctx, "failed to persist error note", "error", noteErr)
		return AskResponse{Ok: true, Answer: msg, Matches: []Match{}}
	}

	return AskResponse{
		Ok:     true,
		Answer: msg,
		Matches: []Match{{
			Score:       0,
			DocID:       docID,
			Titulo:      "Nota de Error",
			ChunkOrd:    0,
			TextPreview: msg,
		}},
	}
}

func (e *engine) ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	q := strings.TrimSpace(req.Query)
	if q == "" {
		return AskResponse{Ok: true, Answer: EmptyQueryMsg, Matches: []Match{}}, nil
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 1
	}

	// Grow the corpus lazily before retrieval; failures never block answering.
	ingested := e.ingestor.EnsureCoverage(ctx, q, 1)
	if ingested > 0 {
		logger.InfoContext(ctx, "auto-ingested sources", "count", ingested)
	}

	items, err := e.docs.FetchAllVectors(ctx)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to fetch stored vectors: %w", err)
	}
	if len(items) == 0 {
		return AskResponse{Ok: true, Answer: NoDocumentsMsg, Matches: []Match{}}, nil
	}

	qvec, err := e.embedder.EmbedText(ctx, q)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to embed question: %w", err)
	}

	ranked := RankBySimilarity(qvec, items)
	logger.InfoContext(ctx, "similarity scan completed",
		"chunks_scanned", len(items),
		"top_score", ranked[0].Score,
	)

	// Keep the single best document's chunks together: answers read better
	// when the context comes from one coherent source.
	bestDocID := ranked[0].DocID
	var topDocChunks []ScoredChunk
	for _, sc := range ranked {
		if sc.DocID != bestDocID {
			continue
		}
		topDocChunks = append(topDocChunks, sc)
		if len(topDocChunks) >= topDocChunkCap {
			break
		}
	}

	if e.opts.AnswerMinScore > 0 && ranked[0].Score < e.opts.AnswerMinScore {
		logger.WarnContext(ctx, "low-confidence answer",
			"top_score", ranked[0].Score,
			"min_score", e.opts.AnswerMinScore,
		)
	}

	contextText := BuildContext(topDocChunks, e.opts.ContextBudget)

	secopContext, secopCount := e.secopContext(ctx, q)
	fullContext := contextText + secopContext

	answer := ""
	if e.chat != nil {
		answer = e.modelAnswer(ctx, q, fullContext)
	}
	if answer == "" {
		answer = HeuristicAnswer(topDocChunks, e.opts.HeuristicBudget)
	}

	matches := make([]Match, 0, topK)
	for _, sc := range topDocChunks {
		matches = append(matches, Match{
			Score:       sc.Score,
			DocID:       sc.DocID,
			Titulo:      sc.Titulo,
			ChunkOrd:    sc.Ord,
			TextPreview: preview(sc.Text, 600),
		})
		if len(matches) >= topK {
			break
		}
	}

	resp := AskResponse{Ok: true, Answer: answer, Matches: matches}
	if secopContext != "" {
		resp.SecopDataIncluded = true
		resp.SecopContractsCount = secopCount
	}
	return resp, nil
}

// modelAnswer asks the chat backend, constrained to the supplied context.
// Any transport, auth or service failure signals unavailability by returning
// the empty string; it never propagates to the caller.
func (e *engine) modelAnswer(ctx context.Context, question, contextText string) string {
	logger := contextutil.LoggerFromContext(ctx)

	messages := []llm.Message{
		{Role: "system", Content: answerSystemRules},
		{Role: "user", Content: fmt.Sprintf("Pregunta: %s\n\nContexto:\n%s", question, contextText)},
	}

	answer, err := e.chat.Chat(ctx, messages, llm.ChatParams{Temperature: 0.2})
	if err != nil {
		logger.WarnContext(ctx, "chat backend unavailable, falling back", "error", err)
		return ""
	}
	return answer
}

// secopContext appends recent open-data figures when the question looks
// quantitative. Best effort; failures leave the context unchanged.
func (e *engine) secopContext(ctx context.Context, question string) (string, int) {
	if e.secop == nil {
		return "", 0
	}

	qLower := strings.ToLower(question)
	quantitative := false
	for _, kw := range quantitativeKeywords {
		if strings.Contains(qLower, kw) {
			quantitative = true
			break
		}
	}
	if !quantitative {
		return "", 0
	}

	var contracts []secop.Contract
	switch {
	case strings.Contains(qLower, "sena"):
		contracts = e.secop.SearchContracts(ctx, secop.Query{Entidad: "SENA", Limit: 5})
	case strings.Contains(qLower, "tecnología"), strings.Contains(qLower, "tecnologia"), strings.Contains(qLower, "software"):
		contracts = e.secop.SearchContracts(ctx, secop.Query{Objeto: "tecnología", Limit: 5})
	case strings.Contains(qLower, "obra"), strings.Contains(qLower, "construcción"):
		contracts = e.secop.SearchContracts(ctx, secop.Query{Objeto: "obra", Limit: 5})
	default:
		contracts = e.secop.SearchContracts(ctx, secop.Query{Limit: 5})
	}

	if len(contracts) == 0 {
		return "", 0
	}

	var b strings.Builder
	b.WriteString("\n\n=== DATOS RECIENTES DE SECOP II ===\n")
	for i, contract := range contracts {
		if i >= 3 {
			break
		}
		entidad := orNA(contract.Str("nombre_entidad"))
		objeto := orNA(preview(contract.Str("descripcion_del_proceso"), 100))
		valor := orNA(contract.Str("valor_del_contrato"))
		fmt.Fprintf(&b, "\n%d. Entidad: %s\n   Objeto: %s\n   Valor: $%s\n", i+1, entidad, objeto, valor)
	}
	return b.String(), len(contracts)
}

func preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
