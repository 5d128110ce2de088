package ingest

// Source is one trusted catalog entry: a public PDF tagged with the keywords
// that make it a candidate for a given question.
type Source struct {
	Titulo   string
	URL      string
	Entidad  string
	Keywords []string
}

// TrustedSources is the fixed catalog of trusted public-procurement PDFs.
// Ingestion only ever fetches from this list, so the corpus grows lazily and
// only with content plausibly relevant to observed queries.
var TrustedSources = []Source{
	{
		Titulo:  "Manual para determinar y verificar los requisitos habilitantes",
		URL:     "https://operaciones.colombiacompra.gov.co/sites/cce_public/files/cce_documents/cce-eicp-ma-04._manual_requisitos_habilitantes_v3_29-09-2023.pdf",
		Entidad: "Colombia Compra Eficiente",
		Keywords: []string{
			"requisitos", "habilitantes", "capacidad", "juridica", "jurídica",
			"financiera", "organizacional", "experiencia", "inhabilidades", "contrato",
		},
	},
	{
		Titulo:  "Guía de criterios de evaluación",
		URL:     "https://www.colombiacompra.gov.co/wp-content/uploads/2024/10/cce-sec-gi-18guiasecopii_eepclicitacionpublica20-04-2022.pdf",
		Entidad: "Colombia Compra Eficiente",
		Keywords: []string{
			"criterios", "evaluacion", "evaluación", "ponderacion", "ponderación",
			"metodologia", "metodología", "precio", "experiencia",
		},
	},
	{
		Titulo:  "Pliego de Condiciones Tipo – Obra Pública v2.0",
		URL:     "https://www.colombiacompra.gov.co/wp-content/uploads/2024/08/20151115_pliego_de_condiciones_para_contrato_de_obra_publica_v2_0.pdf",
		Entidad: "Colombia Compra Eficiente",
		Keywords: []string{
			"pliego", "obra", "requisitos", "plazo", "garantias", "garantías",
			"ejecucion", "ejecución", "condiciones", "pagos",
		},
	},
	{
		Titulo:  "Guía – Gestión Contractual (SECOP II)",
		URL:     "https://formacionvirtual.colombiacompra.gov.co/pluginfile.php/9193/mod_folder/content/0/M%C3%B3dulo%20VI/Gu%C3%ADa%20-%20Gesti%C3%B3n%20Contractual.pdf",
		Entidad: "Colombia Compra Eficiente",
		Keywords: []string{
			"gestion", "gestión", "contractual", "pagos", "plazos", "validación",
			"facturas", "parafiscales", "cronograma", "secop", "secop ii",
		},
	},
}
