package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"secop-rag/internal/secop"
)

// SecopHandler exposes the open-data passthrough endpoints.
type SecopHandler struct {
	client *secop.Client
}

// NewSecopHandler creates a new SecopHandler.
func NewSecopHandler(client *secop.Client) *SecopHandler {
	return &SecopHandler{client: client}
}

// ContractsResponse echoes the applied filters with the results.
type ContractsResponse struct {
	Total     int               `json:"total"`
	Filtros   map[string]string `json:"filtros"`
	Contratos []secop.Contract  `json:"contratos"`
}

// Contracts answers GET /secop/contratos.
func (h *SecopHandler) Contracts(w http.ResponseWriter, r *http.Request) {
	q := secop.Query{
		Entidad:    r.URL.Query().Get("entidad"),
		Objeto:     r.URL.Query().Get("objeto"),
		FechaDesde: r.URL.Query().Get("fecha_desde"),
		FechaHasta: r.URL.Query().Get("fecha_hasta"),
		Limit:      queryInt(r, "limite", 50, 1000),
	}

	contracts := h.client.SearchContracts(r.Context(), q)
	if contracts == nil {
		contracts = []secop.Contract{}
	}

	writeJSON(w, http.StatusOK, ContractsResponse{
		Total: len(contracts),
		Filtros: map[string]string{
			"entidad":     q.Entidad,
			"objeto":      q.Objeto,
			"fecha_desde": q.FechaDesde,
			"fecha_hasta": q.FechaHasta,
		},
		Contratos: contracts,
	})
}

// EntityStats answers GET /secop/estadisticas/{entidad}.
func (h *SecopHandler) EntityStats(w http.ResponseWriter, r *http.Request) {
	entidad := chi.URLParam(r, "entidad")
	if entidad == "" {
		writeError(w, http.StatusBadRequest, "entidad is required")
		return
	}
	writeJSON(w, http.StatusOK, h.client.EntityStatistics(r.Context(), entidad))
}

// ProvidersResponse is the ranked provider listing.
type ProvidersResponse struct {
	Sector           string           `json:"sector"`
	TotalProveedores int              `json:"total_proveedores"`
	Proveedores      []secop.Provider `json:"proveedores"`
}

// Providers answers GET /secop/proveedores?sector=...
func (h *SecopHandler) Providers(w http.ResponseWriter, r *http.Request) {
	sector := r.URL.Query().Get("sector")
	if sector == "" {
		writeError(w, http.StatusBadRequest, "sector is required")
		return
	}

	providers := h.client.SearchProviders(r.Context(), sector, 50)
	total := len(providers)
	if len(providers) > 20 {
		providers = providers[:20]
	}
	if providers == nil {
		providers = []secop.Provider{}
	}

	writeJSON(w, http.StatusOK, ProvidersResponse{
		Sector:           sector,
		TotalProveedores: total,
		Proveedores:      providers,
	})
}

// queryInt parses an integer query parameter with a default and an upper cap.
func queryInt(r *http.Request, key string, def, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
