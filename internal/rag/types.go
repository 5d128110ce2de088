package rag

// AskRequest represents a question-answering request.
type AskRequest struct {
	// Query is the user's question.
	Query string `json:"query"`
	// TopK bounds how many matches are returned. Zero means 1.
	TopK int `json:"top_k"`
}

// Match references a scored chunk backing the answer.
type Match struct {
	// Score is the cosine similarity of the chunk against the query.
	Score float64 `json:"score"`
	// DocID is the matched document's id.
	DocID int64 `json:"doc_id"`
	// Titulo is the matched document's title.
	Titulo string `json:"titulo"`
	// ChunkOrd is the chunk's ordinal within its document.
	ChunkOrd int `json:"chunk_ord"`
	// TextPreview is the leading text of the chunk, capped at 600 runes.
	TextPreview string `json:"text_preview"`
}

// AskResponse is the question-answering result. Ok is true even for defined
// degraded outcomes (empty corpus, empty query, internal errors surfaced as
// synthetic notes); the endpoint never fails for ordinary input.
type AskResponse struct {
	Ok      bool    `json:"ok"`
	Answer  string  `json:"answer"`
	Matches []Match `json:"matches"`

	// SecopDataIncluded is set when open-data contract context was blended
	// into the answer.
	SecopDataIncluded bool `json:"secop_data_included,omitempty"`
	// SecopContractsCount is the number of open-data contracts consulted.
	SecopContractsCount int `json:"secop_contracts_count,omitempty"`
}
