package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimpulso/dtemonitor/internal/domain"
)

func testRepo(t *testing.T) *DocumentRepo {
	t.Helper()
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepo(db)
}

func testDoc(rut, name, estado string, issued domain.Date, total float64) domain.Document {
	return domain.Document{
		IssuerTaxID: rut,
		IssuerName:  name,
		DocType:     "33",
		Folio:       "100",
		IssuedAt:    issued,
		ReceivedAt:  issued,
		NetAmount:   total / 1.19,
		TaxAmount:   total - total/1.19,
		TotalAmount: total,
		Status:      estado,
		ImportedAt:  time.Now().UTC(),
	}
}

func seedDocs(t *testing.T, repo *DocumentRepo) {
	t.Helper()
	docs := []domain.Document{
		testDoc("76123456-7", "Comercial Andina SpA", "Registrado",
			domain.NewDate(2025, time.September, 2), 1_190_000),
		testDoc("76123456-7", "Comercial Andina SpA", "Aprobado",
			domain.NewDate(2025, time.September, 18), 999_600),
		testDoc("77890123-4", "Distribuidora del Pacífico Ltda", "Pendiente",
			domain.NewDate(2025, time.October, 1), 761_600),
		testDoc("78456789-0", "Servicios Industriales Rancagua S.A.", "Registrado",
			domain.NewDate(2025, time.October, 14), 1_808_800),
	}
	n, err := repo.BulkInsert(docs)
	require.NoError(t, err)
	require.Equal(t, len(docs), n)
}

func TestDocumentRepoInsertAndGet(t *testing.T) {
	repo := testRepo(t)

	doc := testDoc("76123456-7", "Comercial Andina SpA", "Registrado",
		domain.NewDate(2025, time.September, 2), 1_190_000)
	doc.Folio = "4821"
	doc.IssuerRegion = "Metropolitana"

	id, err := repo.Insert(&doc)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, "76123456-7", got.IssuerTaxID)
	assert.Equal(t, domain.Folio("4821"), got.Folio)
	assert.Equal(t, "Metropolitana", got.IssuerRegion)
	assert.True(t, got.IssuedAt.SameDay(domain.NewDate(2025, time.September, 2)))
	assert.Equal(t, 1_190_000.0, got.TotalAmount)
}

func TestDocumentRepoGetByIDMissing(t *testing.T) {
	repo := testRepo(t)
	_, err := repo.GetByID(42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDocumentRepoListFilters(t *testing.T) {
	repo := testRepo(t)
	seedDocs(t, repo)

	// Substring match on RUT.
	docs, total, err := repo.List(DocumentFilter{RUT: "76123456"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, docs, 2)

	// Exact estado.
	docs, total, err = repo.List(DocumentFilter{Status: "Pendiente"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "77890123-4", docs[0].IssuerTaxID)

	// Date range on fecha_emision.
	from := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	docs, total, err = repo.List(DocumentFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	to := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	_, total, err = repo.List(DocumentFilter{To: &to})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestDocumentRepoListPagination(t *testing.T) {
	repo := testRepo(t)
	seedDocs(t, repo)

	docs, total, err := repo.List(DocumentFilter{Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, docs, 3)

	docs, _, err = repo.List(DocumentFilter{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDocumentRepoAllPreservesInsertionOrder(t *testing.T) {
	repo := testRepo(t)
	seedDocs(t, repo)

	docs, err := repo.All()
	require.NoError(t, err)
	require.Len(t, docs, 4)
	assert.Equal(t, "76123456-7", docs[0].IssuerTaxID)
	assert.Equal(t, "78456789-0", docs[3].IssuerTaxID)
}

func TestDocumentRepoSummaryStats(t *testing.T) {
	repo := testRepo(t)
	seedDocs(t, repo)

	stats, err := repo.GetSummaryStats()
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalRecords)
	assert.InDelta(t, 4_760_000.0, stats.TotalAmount, 0.001)
	assert.InDelta(t, 1_190_000.0, stats.AverageAmount, 0.001)

	byStatus := map[string]int{}
	for _, st := range stats.ByStatus {
		byStatus[st.Status] = st.Count
	}
	assert.Equal(t, map[string]int{
		"Registrado": 2,
		"Aprobado":   1,
		"Pendiente":  1,
	}, byStatus)
}

func TestDocumentRepoVolumeByMonth(t *testing.T) {
	repo := testRepo(t)
	seedDocs(t, repo)

	volumes, err := repo.GetVolumeByMonth()
	require.NoError(t, err)
	require.Len(t, volumes, 2)

	// Most recent month first.
	assert.Equal(t, "2025-10", volumes[0].Month)
	assert.Equal(t, 2, volumes[0].Records)
	assert.Equal(t, "2025-09", volumes[1].Month)
	assert.Equal(t, 2, volumes[1].Records)
}

func TestDocumentRepoVolumeByProvider(t *testing.T) {
	repo := testRepo(t)
	seedDocs(t, repo)

	volumes, err := repo.GetVolumeByProvider(2)
	require.NoError(t, err)
	require.Len(t, volumes, 2)

	// Ordered by total amount, descending.
	assert.Equal(t, "Comercial Andina SpA", volumes[0].Provider)
	assert.Equal(t, 2, volumes[0].Records)
	assert.Equal(t, "Servicios Industriales Rancagua S.A.", volumes[1].Provider)
}

func TestImportRepoHashIdempotency(t *testing.T) {
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewImportRepo(db)

	exists, err := repo.ExistsByHash("abc123")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Insert(&ImportReport{
		ID:          "rpt-1",
		Source:      "contabilidad",
		Format:      "workbook_json",
		FileHash:    "abc123",
		RecordCount: 10,
		ImportedAt:  time.Now().UTC(),
	}))

	exists, err = repo.ExistsByHash("abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	// Same hash twice violates the unique constraint.
	err = repo.Insert(&ImportReport{
		ID: "rpt-2", Source: "contabilidad", Format: "workbook_json",
		FileHash: "abc123", RecordCount: 10, ImportedAt: time.Now().UTC(),
	})
	assert.Error(t, err)

	reports, err := repo.List()
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "rpt-1", reports[0].ID)
}
