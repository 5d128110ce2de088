// Package secop queries the SECOP II open-data API (Socrata) for
// public-procurement contract records.
package secop

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"secop-rag/internal/contextutil"
)

// DefaultBaseURL is the SECOP II contracts dataset endpoint.
const DefaultBaseURL = "https://www.datos.gov.co/resource/jbjy-vk9h.json"

// Contract is one open-data contract record. The dataset schema is loose,
// so records stay generic maps.
type Contract map[string]any

// Str returns a field as a trimmed string, empty when absent.
func (c Contract) Str(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

// Query holds the supported contract search filters.
type Query struct {
	Entidad    string // entity name, LIKE match
	Objeto     string // contract object keywords, LIKE match
	FechaDesde string // signing date lower bound (YYYY-MM-DD)
	FechaHasta string // signing date upper bound (YYYY-MM-DD)
	Limit      int
}

// EntityStats aggregates an entity's contracting activity.
type EntityStats struct {
	Entidad        string         `json:"entidad"`
	TotalContratos int            `json:"total_contratos"`
	MontoTotal     float64        `json:"monto_total"`
	MontoPromedio  float64        `json:"monto_promedio"`
	Modalidades    map[string]int `json:"modalidades"`
	Muestra        []Contract     `json:"contratos_muestra"`
}

// Provider is an awarded provider ranked by contract count.
type Provider struct {
	Nombre       string         `json:"nombre"`
	NumContratos int            `json:"num_contratos"`
	Contratos    []ProviderItem `json:"contratos"`
}

// ProviderItem is one contract attributed to a provider.
type ProviderItem struct {
	Entidad string `json:"entidad"`
	Objeto  string `json:"objeto"`
	Valor   string `json:"valor"`
}

// Client queries the open-data API. Lookup failures yield empty results,
// never an error.
type Client struct {
	BaseURL string
	client  *http.Client
}

// NewClient creates a SECOP open-data client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SearchContracts searches contract records with the given filters.
// Any transport or decoding failure yields an empty result.
func (c *Client) SearchContracts(ctx context.Context, q Query) []Contract {
	logger := contextutil.LoggerFromContext(ctx)

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	params := url.Values{}
	params.Set("$limit", strconv.Itoa(limit))

	var where []string
	if q.Entidad != "" {
		where = append(where, fmt.Sprintf("nombre_entidad like '%%%s%%'", escapeSoQL(q.Entidad)))
	}
	if q.Objeto != "" {
		where = append(where, fmt.Sprintf("descripcion_del_proceso like '%%%s%%'", escapeSoQL(q.Objeto)))
	}
	if q.FechaDesde != "" {
		where = append(where, fmt.Sprintf("fecha_de_firma >= '%s'", escapeSoQL(q.FechaDesde)))
	}
	if q.FechaHasta != "" {
		where = append(where, fmt.Sprintf("fecha_de_firma <= '%s'", escapeSoQL(q.FechaHasta)))
	}
	if len(where) > 0 {
		params.Set("$where", strings.Join(where, " AND "))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		logger.WarnContext(ctx, "secop request build failed", "error", err)
		return nil
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.WarnContext(ctx, "secop query failed", "error", err)
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		logger.WarnContext(ctx, "secop query bad status", "status", resp.StatusCode)
		return nil
	}

	var contracts []Contract
	if err := json.NewDecoder(resp.Body).Decode(&contracts); err != nil {
		logger.WarnContext(ctx, "secop response decode failed", "error", err)
		return nil
	}
	return contracts
}

// EntityStatistics aggregates contracting statistics for one entity.
func (c *Client) EntityStatistics(ctx context.Context, entidad string) EntityStats {
	contracts := c.SearchContracts(ctx, Query{Entidad: entidad, Limit: 1000})

	stats := EntityStats{
		Entidad:        entidad,
		TotalContratos: len(contracts),
		Modalidades:    map[string]int{},
	}
	if len(contracts) == 0 {
		return stats
	}

	var montos []float64
	for _, contract := range contracts {
		if raw := contract.Str("valor_del_contrato"); raw != "" {
			if monto, err := strconv.ParseFloat(raw, 64); err == nil {
				montos = append(montos, monto)
			}
		}
		mod := contract.Str("modalidad_de_contratacion")
		if mod == "" {
			mod = "Desconocida"
		}
		stats.Modalidades[mod]++
	}

	for _, m := range montos {
		stats.MontoTotal += m
	}
	if len(montos) > 0 {
		stats.MontoPromedio = stats.MontoTotal / float64(len(montos))
	}

	sample := len(contracts)
	if sample > 5 {
		sample = 5
	}
	stats.Muestra = contracts[:sample]

	return stats
}

// SearchProviders groups contracts in a sector by awarded provider and ranks
// providers by descending contract count.
func (c *Client) SearchProviders(ctx context.Context, sector string, limit int) []Provider {
	if limit <= 0 {
		limit = 50
	}
	contracts := c.SearchContracts(ctx, Query{Objeto: sector, Limit: limit})

	byName := map[string]*Provider{}
	var order []string
	for _, contract := range contracts {
		name := contract.Str("proveedor_adjudicado")
		if name == "" {
			name = "Desconocido"
		}
		p, ok := byName[name]
		if !ok {
			p = &Provider{Nombre: name}
			byName[name] = p
			order = append(order, name)
		}
		objeto := contract.Str("descripcion_del_proceso")
		if len(objeto) > 100 {
			objeto = objeto[:100]
		}
		p.NumContratos++
		p.Contratos = append(p.Contratos, ProviderItem{
			Entidad: contract.Str("nombre_entidad"),
			Objeto:  objeto,
			Valor:   contract.Str("valor_del_contrato"),
		})
	}

	out := make([]Provider, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NumContratos > out[j].NumContratos
	})
	return out
}

// escapeSoQL escapes single quotes for interpolation into a SoQL string literal.
func escapeSoQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
