package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func newTestContractRepo(t *testing.T) *ContractRepo {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewContractRepo(db)
}

func TestDeriveUniqueCode(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		index  int
		want   string
	}{
		{
			name:   "prefers codigo_de_secop",
			record: map[string]any{"codigo_de_secop": "CO1.123", "numero_del_proceso": "P-9"},
			want:   "CO1.123",
		},
		{
			name:   "falls back to numero_del_proceso",
			record: map[string]any{"codigo_de_secop": "  ", "numero_del_proceso": "P-9"},
			want:   "P-9",
		},
		{
			name:   "falls back to referencia_del_contrato",
			record: map[string]any{"referencia_del_contrato": "REF-7"},
			want:   "REF-7",
		},
		{
			name:   "falls back to id_contrato",
			record: map[string]any{"id_contrato": 12345},
			want:   "12345",
		},
		{
			name:   "generated code when nothing present",
			record: map[string]any{"otro_campo": "x"},
			index:  7,
			want:   "SEC-000007",
		},
		{
			name:   "nil values skipped",
			record: map[string]any{"codigo_de_secop": nil},
			index:  3,
			want:   "SEC-000003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveUniqueCode(tt.record, tt.index); got != tt.want {
				t.Errorf("DeriveUniqueCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIndexableText(t *testing.T) {
	record := map[string]any{
		"departamento":            "Antioquia",
		"descripcion_del_proceso": "Suministro de equipos",
		"objeto_del_contrato":     "Equipos de cómputo",
		"nombre_entidad":          "Alcaldía de Medellín",
		"campo_ignorado":          "x",
	}

	text := IndexableText(record)
	for _, want := range []string{
		"Departamento: Antioquia",
		"Descripción: Suministro de equipos",
		"Objeto: Equipos de cómputo",
		"Entidad: Alcaldía de Medellín",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "campo_ignorado") {
		t.Errorf("unexpected field in text:\n%s", text)
	}
}

func TestIndexableText_AlternateFields(t *testing.T) {
	record := map[string]any{
		"departamento_entidad": "Cundinamarca",
		"objeto_a_contratar":   "Vías terciarias",
	}
	text := IndexableText(record)
	if !strings.Contains(text, "Departamento: Cundinamarca") {
		t.Errorf("alternate department field not used:\n%s", text)
	}
	if !strings.Contains(text, "Objeto: Vías terciarias") {
		t.Errorf("alternate object field not used:\n%s", text)
	}
}

func TestUpsertContract_SameCodeKeepsOneRow(t *testing.T) {
	repo := newTestContractRepo(t)
	ctx := context.Background()

	record := map[string]any{
		"codigo_de_secop": "CO1.REQ.555",
		"nombre_entidad":  "Gobernación",
	}

	code1, err := repo.UpsertContract(ctx, record, 0)
	if err != nil {
		t.Fatalf("first UpsertContract: %v", err)
	}

	record["nombre_entidad"] = "Gobernación del Valle"
	code2, err := repo.UpsertContract(ctx, record, 1)
	if err != nil {
		t.Fatalf("second UpsertContract: %v", err)
	}
	if code1 != code2 {
		t.Fatalf("codes differ: %q vs %q", code1, code2)
	}

	n, err := repo.CountContracts(ctx)
	if err != nil {
		t.Fatalf("CountContracts: %v", err)
	}
	if n != 1 {
		t.Errorf("row count = %d, want 1 after re-upsert", n)
	}

	got, err := repo.GetContract(ctx, code1)
	if err != nil {
		t.Fatalf("GetContract: %v", err)
	}
	if got.TextoTotal["nombre_entidad"] != "Gobernación del Valle" {
		t.Errorf("stored record not replaced: %v", got.TextoTotal)
	}
}

func TestGetContract_NotFound(t *testing.T) {
	repo := newTestContractRepo(t)

	_, err := repo.GetContract(context.Background(), "NO-EXISTE")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListContracts_Pagination(t *testing.T) {
	repo := newTestContractRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := map[string]any{"codigo_de_secop": "COD-" + string(rune('A'+i))}
		if _, err := repo.UpsertContract(ctx, record, i); err != nil {
			t.Fatalf("UpsertContract %d: %v", i, err)
		}
	}

	page, err := repo.ListContracts(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListContracts: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d rows, want 2", len(page))
	}
	if page[0].CodigoUnico != "COD-E" {
		t.Errorf("first row = %q, want newest", page[0].CodigoUnico)
	}

	page2, err := repo.ListContracts(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListContracts offset: %v", err)
	}
	if len(page2) != 2 || page2[0].CodigoUnico != "COD-C" {
		t.Errorf("offset page = %+v", page2)
	}
}

func TestReplaceEmbeddings(t *testing.T) {
	repo := newTestContractRepo(t)
	ctx := context.Background()

	code, err := repo.UpsertContract(ctx, map[string]any{"codigo_de_secop": "CO1.EMB.1"}, 0)
	if err != nil {
		t.Fatalf("UpsertContract: %v", err)
	}

	n, err := repo.ReplaceEmbeddings(ctx, code, []string{"a", "b"}, [][]float32{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("ReplaceEmbeddings: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted %d, want 2", n)
	}

	// Replacing again must not accumulate rows.
	if _, err := repo.ReplaceEmbeddings(ctx, code, []string{"c"}, [][]float32{{5, 6}}); err != nil {
		t.Fatalf("second ReplaceEmbeddings: %v", err)
	}

	all, err := repo.FetchAllEmbeddings(ctx)
	if err != nil {
		t.Fatalf("FetchAllEmbeddings: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d embeddings, want 1 after replacement", len(all))
	}
	e := all[0]
	if e.CodigoUnico != code || e.ChunkOrd != 0 || e.ChunkText != "c" {
		t.Errorf("embedding = %+v", e)
	}
	if len(e.Embedding) != 2 || e.Embedding[0] != 5 {
		t.Errorf("vector = %v", e.Embedding)
	}
}

func TestReplaceEmbeddings_LengthMismatch(t *testing.T) {
	repo := newTestContractRepo(t)

	if _, err := repo.ReplaceEmbeddings(context.Background(), "X", []string{"a"}, nil); err == nil {
		t.Error("expected error on chunks/vectors mismatch")
	}
}
