package domain

import "time"

// RiskLevel is the discrete risk tier assigned to an evaluated document.
type RiskLevel string

const (
	RiskLow      RiskLevel = "BAJO"
	RiskMedium   RiskLevel = "MEDIO"
	RiskCritical RiskLevel = "CRÍTICO"
)

// RiskAssessment is the aggregate evaluation of a single document: the
// triggered findings in rule order, the summed score, the tier and the gates
// derived from it. The JSON keys are the contract consumed by the dashboard.
type RiskAssessment struct {
	IssuerTaxID      string    `json:"rut"`
	IssuerName       string    `json:"razonSocial"`
	Folio            Folio     `json:"folio"`
	TotalAmount      float64   `json:"monto"`
	Findings         []Finding `json:"alertas"`
	Score            int       `json:"riesgoScore"`
	Level            RiskLevel `json:"nivel"`
	RequiresApproval bool      `json:"requiereAprobacion"`
	Blocked          bool      `json:"bloqueado"`
	Recommendation   string    `json:"recomendacion"`
}

// ReportDocument summarises the identifying fields of the evaluated document.
type ReportDocument struct {
	IssuerTaxID string  `json:"rut"`
	IssuerName  string  `json:"razonSocial"`
	Folio       Folio   `json:"folio"`
	TotalAmount float64 `json:"monto"`
}

// ReportEvaluation is the outcome block of a report.
type ReportEvaluation struct {
	Score            int       `json:"riesgoScore"`
	Level            RiskLevel `json:"nivel"`
	FindingCount     int       `json:"cantidadAlertas"`
	RequiresApproval bool      `json:"requiereAprobacion"`
	Blocked          bool      `json:"bloqueado"`
}

// ReportAction is one finding flattened for direct display.
type ReportAction struct {
	Category FindingCategory `json:"tipo"`
	Message  string          `json:"mensaje"`
	Action   string          `json:"accion"`
}

// Report is the serialization-ready projection of an assessment returned by
// the analyze endpoint.
type Report struct {
	Timestamp      time.Time        `json:"timestamp"`
	Document       ReportDocument   `json:"dte"`
	Evaluation     ReportEvaluation `json:"evaluacion"`
	Findings       []Finding        `json:"alertas"`
	Recommendation string           `json:"recomendacion"`
	Actions        []ReportAction   `json:"acciones"`
}

// BatchResult pairs a document with its assessment, preserving batch order.
type BatchResult struct {
	Document
	Assessment RiskAssessment `json:"analisisSeguridad"`
}

// BatchStatistics summarises a batch of assessments.
type BatchStatistics struct {
	Total           int                     `json:"total"`
	Blocked         int                     `json:"bloqueados"`
	RequireApproval int                     `json:"requierenAprobacion"`
	ByLevel         map[RiskLevel]int       `json:"porNivel"`
	ByCategory      map[FindingCategory]int `json:"porTipo"`
	AverageScore    float64                 `json:"scorePromedio"`
}
