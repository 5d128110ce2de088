package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"secop-rag/internal/indexer"
	"secop-rag/internal/secop"
	"secop-rag/internal/storage"
)

// ContractsHandler manages the locally stored contract corpus.
type ContractsHandler struct {
	contracts storage.ContractStore
	pipeline  *indexer.ContractPipeline
}

// NewContractsHandler creates a new ContractsHandler.
func NewContractsHandler(contracts storage.ContractStore, pipeline *indexer.ContractPipeline) *ContractsHandler {
	return &ContractsHandler{contracts: contracts, pipeline: pipeline}
}

// ListResponseContracts is the local contract listing payload.
type ListResponseContracts struct {
	Ok        bool                      `json:"ok"`
	Total     int                       `json:"total"`
	Contratos []storage.ContractSummary `json:"contratos"`
}

// List answers GET /rag/contratos.
func (h *ContractsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limite", 50, 500)
	offset := queryInt(r, "offset", 0, 1<<30)

	summaries, err := h.contracts.ListContracts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts")
		return
	}
	total, err := h.contracts.CountContracts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count contracts")
		return
	}
	if summaries == nil {
		summaries = []storage.ContractSummary{}
	}

	writeJSON(w, http.StatusOK, ListResponseContracts{Ok: true, Total: total, Contratos: summaries})
}

// Get answers GET /rag/contratos/{codigo}.
func (h *ContractsHandler) Get(w http.ResponseWriter, r *http.Request) {
	codigo := chi.URLParam(r, "codigo")

	contract, err := h.contracts.GetContract(r.Context(), codigo)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contrato no encontrado.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch contract")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "contrato": contract})
}

// LoadResponse reports an ingestion run over the open-data API.
type LoadResponse struct {
	Ok          bool `json:"ok"`
	Encontrados int  `json:"encontrados"`
	Cargados    int  `json:"cargados"`
	ConVectores int  `json:"con_vectores"`
	TotalEnBD   int  `json:"total_en_bd"`
}

// Load answers POST /rag/cargar: fetch contracts from the open-data API
// and persist them locally, optionally embedding their text.
func (h *ContractsHandler) Load(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := secop.Query{
		Entidad: params.Get("entidad"),
		Objeto:  params.Get("objeto"),
		Limit:   queryInt(r, "limite", 100, 1000),
	}
	withEmbeddings := params.Get("embed") == "true" || params.Get("embed") == "1"

	result := h.pipeline.Load(r.Context(), q, withEmbeddings)

	total, err := h.contracts.CountContracts(r.Context())
	if err != nil {
		total = 0
	}

	writeJSON(w, http.StatusOK, LoadResponse{
		Ok:          true,
		Encontrados: result.Found,
		Cargados:    result.Loaded,
		ConVectores: result.Embedded,
		TotalEnBD:   total,
	})
}

// StatsResponse summarizes the embedded contract corpus.
type StatsResponse struct {
	Ok                     bool `json:"ok"`
	TotalContratos         int  `json:"total_contratos"`
	ContratosConEmbeddings int  `json:"contratos_con_embeddings"`
	TotalEmbeddings        int  `json:"total_embeddings"`
}

// Stats answers GET /rag/stats.
func (h *ContractsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.contracts.CountContracts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count contracts")
		return
	}

	embeddings, err := h.contracts.FetchAllEmbeddings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch embeddings")
		return
	}
	withVectors := map[string]struct{}{}
	for _, e := range embeddings {
		withVectors[e.CodigoUnico] = struct{}{}
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Ok:                     true,
		TotalContratos:         total,
		ContratosConEmbeddings: len(withVectors),
		TotalEmbeddings:        len(embeddings),
	})
}
