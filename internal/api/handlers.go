package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trimpulso/dtemonitor/internal/domain"
	"github.com/trimpulso/dtemonitor/internal/ingestion"
	"github.com/trimpulso/dtemonitor/internal/repository"
	"github.com/trimpulso/dtemonitor/internal/risk"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	docRepo    *repository.DocumentRepo
	importRepo *repository.ImportRepo
	importSvc  *ingestion.Service
	engine     *risk.Engine
	validate   *validator.Validate
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// emptyStatistics is the zeroed statistics block returned when there is
// nothing to summarise, so consumers never see a null or NaN mean.
func emptyStatistics() *domain.BatchStatistics {
	return &domain.BatchStatistics{
		ByLevel: map[domain.RiskLevel]int{
			domain.RiskLow:      0,
			domain.RiskMedium:   0,
			domain.RiskCritical: 0,
		},
		ByCategory: map[domain.FindingCategory]int{},
	}
}

func statisticsOrEmpty(assessments []domain.RiskAssessment) *domain.BatchStatistics {
	stats, err := risk.Statistics(assessments)
	if errors.Is(err, risk.ErrEmptyBatch) {
		return emptyStatistics()
	}
	return stats
}

// --- ImportFile ---

func (h *Handlers) ImportFile(w http.ResponseWriter, r *http.Request) {
	// Accept multipart form.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	source := r.FormValue("source")
	format := r.FormValue("format")
	if source == "" || format == "" {
		writeError(w, http.StatusBadRequest, "source and format are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.importSvc.ImportFile(data, source, format)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- ListImports ---

func (h *Handlers) ListImports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.importRepo.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imports": reports})
}

// --- ListDocuments ---

func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.DocumentFilter{
		RUT:    q.Get("rut"),
		Status: q.Get("estado"),
		From:   parseTime(q.Get("fecha_desde")),
		To:     parseTime(q.Get("fecha_hasta")),
		Page:   parseIntDefault(q.Get("page"), 1),
		Limit:  parseIntDefault(q.Get("limit"), 100),
	}

	docs, total, err := h.docRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": docs,
		"pagination": map[string]int{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
			"pages": (total + filter.Limit - 1) / filter.Limit,
		},
	})
}

// --- GetDocument ---

func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	doc, err := h.docRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "registro no encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// --- ListDocumentsWithAlerts ---

func (h *Handlers) ListDocumentsWithAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	limit := parseIntDefault(q.Get("limit"), 100)

	docs, err := h.docRepo.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := h.engine.EvaluateBatch(r.Context(), docs)

	// Keep only documents with at least one finding.
	flagged := results[:0]
	for _, res := range results {
		if len(res.Assessment.Findings) > 0 {
			flagged = append(flagged, res)
		}
	}

	total := len(flagged)
	pages := (total + limit - 1) / limit
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	assessments := make([]domain.RiskAssessment, len(flagged))
	for i, res := range flagged {
		assessments[i] = res.Assessment
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": flagged[offset:end],
		"pagination": map[string]int{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
		"estadisticas": statisticsOrEmpty(assessments),
	})
}

// --- Stats ---

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.docRepo.GetSummaryStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) GetVolumeByMonth(w http.ResponseWriter, r *http.Request) {
	volumes, err := h.docRepo.GetVolumeByMonth()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, volumes)
}

func (h *Handlers) GetVolumeByProvider(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 10)
	volumes, err := h.docRepo.GetVolumeByProvider(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, volumes)
}

// --- AnalyzeDocument ---

func (h *Handlers) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "DTE inválido: "+err.Error())
		return
	}
	if err := h.validate.Struct(doc); err != nil {
		writeError(w, http.StatusBadRequest, "DTE inválido: RUT_Emisor requerido")
		return
	}

	assessment := h.engine.Evaluate(&doc)
	report := h.engine.BuildReport(&assessment)

	writeJSON(w, http.StatusOK, report)
}

// --- AnalyzeBatch ---

func (h *Handlers) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DTEs []domain.Document `json:"dtes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido: "+err.Error())
		return
	}
	if len(body.DTEs) == 0 {
		writeError(w, http.StatusBadRequest, "se requiere array de DTEs")
		return
	}

	results := h.engine.EvaluateBatch(r.Context(), body.DTEs)

	assessments := make([]domain.RiskAssessment, len(results))
	for i, res := range results {
		assessments[i] = res.Assessment
	}
	stats, err := risk.Statistics(assessments)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"resultados":   results,
		"estadisticas": stats,
	})
}

// --- GetSecurityStats ---

func (h *Handlers) GetSecurityStats(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docRepo.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := h.engine.EvaluateBatch(r.Context(), docs)
	assessments := make([]domain.RiskAssessment, len(results))
	for i, res := range results {
		assessments[i] = res.Assessment
	}

	stats := statisticsOrEmpty(assessments)
	baseline := h.engine.Baseline()

	writeJSON(w, http.StatusOK, map[string]any{
		"total":                stats.Total,
		"bloqueados":           stats.Blocked,
		"requierenAprobacion":  stats.RequireApproval,
		"porNivel":             stats.ByLevel,
		"porTipo":              stats.ByCategory,
		"scorePromedio":        stats.AverageScore,
		"proveedoresConocidos": baseline.KnownIssuers(),
		"registrosAnalizados":  len(docs),
		"promedioGeneral":      int(baseline.GlobalAverage() + 0.5),
	})
}

// --- GetDashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.docRepo.GetSummaryStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	byMonth, err := h.docRepo.GetVolumeByMonth()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	byProvider, err := h.docRepo.GetVolumeByProvider(10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	docs, err := h.docRepo.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	results := h.engine.EvaluateBatch(r.Context(), docs)
	assessments := make([]domain.RiskAssessment, len(results))
	for i, res := range results {
		assessments[i] = res.Assessment
	}
	security := statisticsOrEmpty(assessments)

	writeJSON(w, http.StatusOK, map[string]any{
		"documentos":  summary,
		"por_mes":     byMonth,
		"proveedores": byProvider,
		"seguridad":   security,
	})
}
