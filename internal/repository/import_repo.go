package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// ImportReport records one ingested accounting file, keyed by content hash
// so re-uploads are detected.
type ImportReport struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Format      string    `json:"format"`
	FileHash    string    `json:"file_hash"`
	RecordCount int       `json:"record_count"`
	ImportedAt  time.Time `json:"imported_at"`
}

type ImportRepo struct {
	db *sql.DB
}

func NewImportRepo(db *sql.DB) *ImportRepo {
	return &ImportRepo{db: db}
}

func (r *ImportRepo) Insert(rep *ImportReport) error {
	_, err := r.db.Exec(
		`INSERT INTO import_reports (id, source, format, file_hash, record_count, imported_at)
		VALUES (?,?,?,?,?,?)`,
		rep.ID, rep.Source, rep.Format, rep.FileHash, rep.RecordCount,
		rep.ImportedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert import report: %w", err)
	}
	return nil
}

func (r *ImportRepo) ExistsByHash(hash string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM import_reports WHERE file_hash = ?", hash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check hash: %w", err)
	}
	return count > 0, nil
}

func (r *ImportRepo) List() ([]ImportReport, error) {
	rows, err := r.db.Query(`
		SELECT id, source, format, file_hash, record_count, imported_at
		FROM import_reports ORDER BY imported_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var reports []ImportReport
	for rows.Next() {
		var rep ImportReport
		var importedAt string
		if err := rows.Scan(&rep.ID, &rep.Source, &rep.Format, &rep.FileHash,
			&rep.RecordCount, &importedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rep.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
