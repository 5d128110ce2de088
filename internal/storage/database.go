package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id    INTEGER PRIMARY KEY AUTOINCREMENT,
			titulo    TEXT NOT NULL,
			entidad   TEXT,
			archivo   TEXT,
			metadata  TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id  INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id    INTEGER NOT NULL,
			ord       INTEGER NOT NULL,
			text      TEXT NOT NULL,
			emb_json  TEXT NOT NULL,
			FOREIGN KEY (doc_id) REFERENCES documents(doc_id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_docid ON chunks(doc_id);`,
		`CREATE TABLE IF NOT EXISTS contratos (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			codigo_unico   TEXT UNIQUE NOT NULL,
			texto_total    TEXT NOT NULL,
			texto_indexar  TEXT NOT NULL,
			created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_contratos_codigo ON contratos(codigo_unico);`,
		`CREATE TABLE IF NOT EXISTS contrato_embeddings (
			emb_id        INTEGER PRIMARY KEY AUTOINCREMENT,
			codigo_unico  TEXT NOT NULL,
			chunk_ord     INTEGER NOT NULL,
			chunk_text    TEXT NOT NULL,
			emb_json      TEXT NOT NULL,
			FOREIGN KEY (codigo_unico) REFERENCES contratos(codigo_unico) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_emb_codigo ON contrato_embeddings(codigo_unico);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
