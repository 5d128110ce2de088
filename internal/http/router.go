package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"secop-rag/internal/handlers"
	"secop-rag/internal/indexer"
	"secop-rag/internal/rag"
	"secop-rag/internal/secop"
	"secop-rag/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DB           *sql.DB
	Documents    storage.DocumentStore
	Contracts    storage.ContractStore
	Engine       rag.Engine
	Pipeline     *indexer.ContractPipeline
	SecopClient  *secop.Client
	LLMProvider  string
	OriginalsDir string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.Engine)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.LLMProvider)
	docsHandler := handlers.NewDocumentsHandler(deps.Documents, deps.OriginalsDir)
	contractsHandler := handlers.NewContractsHandler(deps.Contracts, deps.Pipeline)
	secopHandler := handlers.NewSecopHandler(deps.SecopClient)

	r.Get("/", handlers.Root)
	r.Get("/ping", healthHandler.Ping)
	r.Get("/api/health", healthHandler.Health)

	r.Method(http.MethodPost, "/ask", askHandler)
	r.Get("/documents", docsHandler.List)
	r.Get("/download", docsHandler.Download)

	r.Route("/rag", func(r chi.Router) {
		r.Get("/contratos", contractsHandler.List)
		r.Get("/contratos/{codigo}", contractsHandler.Get)
		r.Post("/cargar", contractsHandler.Load)
		r.Get("/stats", contractsHandler.Stats)
	})

	r.Route("/secop", func(r chi.Router) {
		r.Get("/contratos", secopHandler.Contracts)
		r.Get("/estadisticas/{entidad}", secopHandler.EntityStats)
		r.Get("/proveedores", secopHandler.Providers)
	})

	return r
}
