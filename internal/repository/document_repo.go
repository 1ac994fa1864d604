package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/trimpulso/dtemonitor/internal/domain"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `rut_emisor, razon_social_emisor, tipo_dte, folio_dte,
	fecha_emision, fecha_recepcion, monto_neto, monto_iva, monto_total,
	estado_rcv, region_emisor, codigo_impuesto, sheet_name, imported_at`

func (r *DocumentRepo) Insert(doc *domain.Document) (int64, error) {
	res, err := r.db.Exec(
		`INSERT INTO documents (`+documentColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		doc.IssuerTaxID, doc.IssuerName, doc.DocType, string(doc.Folio),
		formatDate(doc.IssuedAt), formatDate(doc.ReceivedAt),
		doc.NetAmount, doc.TaxAmount, doc.TotalAmount,
		doc.Status, doc.IssuerRegion, doc.TaxCode, doc.SheetName,
		doc.ImportedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return res.LastInsertId()
}

func (r *DocumentRepo) BulkInsert(docs []domain.Document) (int, error) {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT INTO documents (` + documentColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range docs {
		doc := &docs[i]
		if _, err := stmt.Exec(
			doc.IssuerTaxID, doc.IssuerName, doc.DocType, string(doc.Folio),
			formatDate(doc.IssuedAt), formatDate(doc.ReceivedAt),
			doc.NetAmount, doc.TaxAmount, doc.TotalAmount,
			doc.Status, doc.IssuerRegion, doc.TaxCode, doc.SheetName,
			doc.ImportedAt.Format(time.RFC3339),
		); err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		inserted++
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *DocumentRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count)
	return count, err
}

func (r *DocumentRepo) GetByID(id int64) (*domain.Document, error) {
	rows, err := r.db.Query(
		"SELECT id, "+documentColumns+" FROM documents WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanDocument(rows)
}

// All returns every stored document in insertion order. Used to build the
// risk baseline and for fleet-wide security analysis.
func (r *DocumentRepo) All() ([]domain.Document, error) {
	rows, err := r.db.Query(
		"SELECT id, " + documentColumns + " FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

type DocumentFilter struct {
	RUT    string // substring match on issuer tax id
	Status string
	From   *time.Time // fecha_emision lower bound
	To     *time.Time // fecha_emision upper bound
	Page   int
	Limit  int
}

func (r *DocumentRepo) List(f DocumentFilter) ([]domain.Document, int, error) {
	where, args := buildDocumentWhere(f)

	var total int
	countSQL := "SELECT COUNT(*) FROM documents" + where
	if err := r.db.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := "SELECT id, " + documentColumns + " FROM documents" + where +
		" ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, total, rows.Err()
}

// StatusStat is the per-estado slice of the summary.
type StatusStat struct {
	Status      string  `json:"estado"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"monto_total"`
}

// SummaryStats holds aggregate document statistics for the dashboard.
type SummaryStats struct {
	TotalRecords  int          `json:"total_registros"`
	TotalAmount   float64      `json:"monto_total"`
	AverageAmount float64      `json:"monto_promedio"`
	ByStatus      []StatusStat `json:"por_estado"`
}

func (r *DocumentRepo) GetSummaryStats() (*SummaryStats, error) {
	s := &SummaryStats{}
	if err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(monto_total), 0), COALESCE(AVG(monto_total), 0)
		FROM documents
	`).Scan(&s.TotalRecords, &s.TotalAmount, &s.AverageAmount); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT CASE WHEN estado_rcv = '' THEN 'Sin Estado' ELSE estado_rcv END,
			COUNT(*), COALESCE(SUM(monto_total), 0)
		FROM documents GROUP BY 1 ORDER BY 2 DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var st StatusStat
		if err := rows.Scan(&st.Status, &st.Count, &st.TotalAmount); err != nil {
			return nil, err
		}
		s.ByStatus = append(s.ByStatus, st)
	}
	return s, rows.Err()
}

type MonthlyVolume struct {
	Month       string  `json:"mes"`
	Records     int     `json:"registros"`
	TotalAmount float64 `json:"monto_total"`
}

// GetVolumeByMonth returns document volume per emission month (YYYY-MM),
// most recent first, limited to the last 12 months present.
func (r *DocumentRepo) GetVolumeByMonth() ([]MonthlyVolume, error) {
	rows, err := r.db.Query(`
		SELECT substr(fecha_emision, 1, 7), COUNT(*), COALESCE(SUM(monto_total), 0)
		FROM documents
		WHERE fecha_emision != ''
		GROUP BY 1 ORDER BY 1 DESC LIMIT 12
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MonthlyVolume
	for rows.Next() {
		var mv MonthlyVolume
		if err := rows.Scan(&mv.Month, &mv.Records, &mv.TotalAmount); err != nil {
			return nil, err
		}
		result = append(result, mv)
	}
	return result, rows.Err()
}

type ProviderVolume struct {
	Provider    string  `json:"proveedor"`
	Records     int     `json:"registros"`
	TotalAmount float64 `json:"monto_total"`
}

// GetVolumeByProvider returns the top providers by total amount.
func (r *DocumentRepo) GetVolumeByProvider(limit int) ([]ProviderVolume, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`
		SELECT CASE WHEN razon_social_emisor = '' THEN 'Sin Razón Social' ELSE razon_social_emisor END,
			COUNT(*), COALESCE(SUM(monto_total), 0)
		FROM documents
		GROUP BY 1 ORDER BY 3 DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProviderVolume
	for rows.Next() {
		var pv ProviderVolume
		if err := rows.Scan(&pv.Provider, &pv.Records, &pv.TotalAmount); err != nil {
			return nil, err
		}
		result = append(result, pv)
	}
	return result, rows.Err()
}

// --- helpers ---

func buildDocumentWhere(f DocumentFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.RUT != "" {
		clauses = append(clauses, "rut_emisor LIKE ?")
		args = append(args, "%"+f.RUT+"%")
	}
	if f.Status != "" {
		clauses = append(clauses, "estado_rcv = ?")
		args = append(args, f.Status)
	}
	if f.From != nil {
		clauses = append(clauses, "fecha_emision >= ?")
		args = append(args, f.From.Format("2006-01-02"))
	}
	if f.To != nil {
		clauses = append(clauses, "fecha_emision <= ?")
		args = append(args, f.To.Format("2006-01-02"))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func formatDate(d domain.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func parseDate(s string) domain.Date {
	if s == "" {
		return domain.Date{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return domain.Date{}
	}
	return domain.Date{Time: t}
}

func scanDocument(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var folio, issued, received, importedAt string

	err := rows.Scan(
		&doc.ID, &doc.IssuerTaxID, &doc.IssuerName, &doc.DocType, &folio,
		&issued, &received, &doc.NetAmount, &doc.TaxAmount, &doc.TotalAmount,
		&doc.Status, &doc.IssuerRegion, &doc.TaxCode, &doc.SheetName,
		&importedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Folio = domain.Folio(folio)
	doc.IssuedAt = parseDate(issued)
	doc.ReceivedAt = parseDate(received)
	doc.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)

	return &doc, nil
}
