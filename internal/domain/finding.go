package domain

// FindingCategory identifies which rule produced a finding. The values are
// part of the wire contract with the dashboard and keep the original system's
// naming.
type FindingCategory string

const (
	CategoryNewIssuer             FindingCategory = "EMISOR_NUEVO"
	CategoryDifferentRegion       FindingCategory = "REGION_DIFERENTE"
	CategoryAbnormalAmountIssuer  FindingCategory = "MONTO_ANORMAL_EMISOR"
	CategoryAbnormalAmountGeneral FindingCategory = "MONTO_ANORMAL_GENERAL"
	CategoryImmediateReceipt      FindingCategory = "RECEPCION_INMEDIATA"
	CategorySuspiciousFolio       FindingCategory = "FOLIO_SOSPECHOSO"
	CategoryPendingHighAmount     FindingCategory = "PENDIENTE_MONTO_ALTO"
	CategoryIncorrectTax          FindingCategory = "IVA_INCORRECTO"
	CategorySuspiciousName        FindingCategory = "RAZON_SOCIAL_SOSPECHOSA"
)

// FindingSeverity is the per-finding warning label shown in the dashboard.
// It is descriptive only; scoring uses Weight.
type FindingSeverity string

const (
	SeverityWarning       FindingSeverity = "ADVERTENCIA"
	SeverityWarningMedium FindingSeverity = "ADVERTENCIA_MEDIA"
	SeverityWarningHigh   FindingSeverity = "ADVERTENCIA_ALTA"
)

// Finding is one rule's verdict on one document.
type Finding struct {
	Triggered bool            `json:"alerta"`
	Category  FindingCategory `json:"tipo"`
	Severity  FindingSeverity `json:"nivel"`
	Icon      string          `json:"icono"`
	Message   string          `json:"mensaje"`
	Action    string          `json:"accion"`
	Weight    int             `json:"score"`
}
