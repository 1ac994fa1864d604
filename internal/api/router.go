package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/trimpulso/dtemonitor/internal/ingestion"
	"github.com/trimpulso/dtemonitor/internal/repository"
	"github.com/trimpulso/dtemonitor/internal/risk"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	docRepo *repository.DocumentRepo,
	importRepo *repository.ImportRepo,
	importSvc *ingestion.Service,
	engine *risk.Engine,
) http.Handler {
	h := &Handlers{
		docRepo:    docRepo,
		importRepo: importRepo,
		importSvc:  importSvc,
		engine:     engine,
		validate:   validator.New(),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Imports.
		r.Post("/imports", h.ImportFile)
		r.Get("/imports", h.ListImports)

		// Documents.
		r.Get("/documents", h.ListDocuments)
		r.Get("/documents/with-alerts", h.ListDocumentsWithAlerts)
		r.Get("/documents/{id}", h.GetDocument)

		// Stats.
		r.Get("/stats/summary", h.GetSummary)
		r.Get("/stats/by-month", h.GetVolumeByMonth)
		r.Get("/stats/by-provider", h.GetVolumeByProvider)

		// Security analysis.
		r.Post("/security/analyze", h.AnalyzeDocument)
		r.Post("/security/analyze-batch", h.AnalyzeBatch)
		r.Get("/security/stats", h.GetSecurityStats)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
