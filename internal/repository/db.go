package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			rut_emisor TEXT NOT NULL DEFAULT '',
			razon_social_emisor TEXT NOT NULL DEFAULT '',
			tipo_dte TEXT NOT NULL DEFAULT '',
			folio_dte TEXT NOT NULL DEFAULT '',
			fecha_emision TEXT NOT NULL DEFAULT '',
			fecha_recepcion TEXT NOT NULL DEFAULT '',
			monto_neto REAL NOT NULL DEFAULT 0,
			monto_iva REAL NOT NULL DEFAULT 0,
			monto_total REAL NOT NULL DEFAULT 0,
			estado_rcv TEXT NOT NULL DEFAULT '',
			region_emisor TEXT NOT NULL DEFAULT '',
			codigo_impuesto TEXT NOT NULL DEFAULT '',
			sheet_name TEXT NOT NULL DEFAULT '',
			imported_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_rut ON documents(rut_emisor)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_estado ON documents(estado_rcv)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_fecha_emision ON documents(fecha_emision)`,

		`CREATE TABLE IF NOT EXISTS import_reports (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			format TEXT NOT NULL,
			file_hash TEXT UNIQUE NOT NULL,
			record_count INTEGER NOT NULL,
			imported_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_import_reports_source ON import_reports(source)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
