package handlers

import "net/http"

// Root answers GET / with a short service descriptor.
func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"servicio": "Asistente de Contratación Pública",
		"endpoints": map[string]string{
			"POST /ask":                         "Pregunta sobre los documentos indexados",
			"GET /documents":                    "Lista los documentos indexados",
			"GET /download?doc_id=N":            "Descarga un documento original o su texto",
			"GET /rag/contratos":                "Lista los contratos almacenados",
			"GET /rag/contratos/{codigo}":       "Detalle de un contrato",
			"POST /rag/cargar":                  "Carga contratos desde datos abiertos",
			"GET /rag/stats":                    "Estado del corpus de contratos",
			"GET /secop/contratos":              "Consulta contratos en datos abiertos",
			"GET /secop/estadisticas/{entidad}": "Estadísticas de una entidad",
			"GET /secop/proveedores":            "Proveedores destacados por sector",
			"GET /api/health":                   "Estado del servicio",
		},
	})
}
