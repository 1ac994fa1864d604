package risk

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/trimpulso/dtemonitor/internal/domain"
)

// A Rule inspects one document against the baseline and returns a finding,
// triggered or not. Rules never mutate the document and never see each
// other's results.
type Rule func(cfg *Config, doc *domain.Document, b *Baseline) domain.Finding

// ruleset is the fixed evaluation order. The findings list of an assessment
// follows this order, so consumers can rely on it.
func ruleset() []Rule {
	return []Rule{
		checkNewIssuer,
		checkRegion,
		checkAbnormalAmount,
		checkImmediateReceipt,
		checkSuspiciousFolio,
		checkPendingHighAmount,
		checkTaxMismatch,
		checkSuspiciousName,
	}
}

func checkNewIssuer(cfg *Config, doc *domain.Document, b *Baseline) domain.Finding {
	return domain.Finding{
		Triggered: !b.IsKnownIssuer(doc.IssuerTaxID),
		Category:  domain.CategoryNewIssuer,
		Severity:  domain.SeverityWarning,
		Icon:      "🆕",
		Message: fmt.Sprintf("Emisor nuevo: %s (%s) no tiene historial en el sistema",
			doc.IssuerName, doc.IssuerTaxID),
		Action: "Verificar existencia en SII y validar actividad comercial",
		Weight: cfg.NewIssuerWeight,
	}
}

func checkRegion(cfg *Config, doc *domain.Document, b *Baseline) domain.Finding {
	region := doc.IssuerRegion
	if region == "" {
		region = "No especificada"
	}
	return domain.Finding{
		Triggered: !slices.Contains(cfg.AllowedRegions, region),
		Category:  domain.CategoryDifferentRegion,
		Severity:  domain.SeverityWarningMedium,
		Icon:      "🌍",
		Message: fmt.Sprintf("Emisor ubicado en región %s (fuera de zona operacional habitual)",
			region),
		Action: "Verificar razón comercial para operación en esta región",
		Weight: cfg.RegionWeight,
	}
}

func checkAbnormalAmount(cfg *Config, doc *domain.Document, b *Baseline) domain.Finding {
	if avg, ok := b.IssuerAverage(doc.IssuerTaxID); ok {
		return domain.Finding{
			Triggered: doc.TotalAmount > avg*cfg.AbnormalAmountFactor,
			Category:  domain.CategoryAbnormalAmountIssuer,
			Severity:  domain.SeverityWarningHigh,
			Icon:      "💰",
			Message: fmt.Sprintf("Monto $%s excede %gx el promedio histórico del emisor ($%s)",
				formatAmount(doc.TotalAmount), cfg.AbnormalAmountFactor,
				formatAmount(math.Round(avg))),
			Action: "Verificar con el emisor y validar orden de compra",
			Weight: cfg.AbnormalAmountWeight,
		}
	}

	avg := b.GlobalAverage()
	return domain.Finding{
		Triggered: doc.TotalAmount > avg*cfg.AbnormalAmountFactor,
		Category:  domain.CategoryAbnormalAmountGeneral,
		Severity:  domain.SeverityWarningHigh,
		Icon:      "💰",
		Message: fmt.Sprintf("Monto $%s excede %gx el promedio general ($%s)",
			formatAmount(doc.TotalAmount), cfg.AbnormalAmountFactor,
			formatAmount(math.Round(avg))),
		Action: "Requiere aprobación manual y verificación de orden de compra",
		Weight: cfg.AbnormalAmountWeight,
	}
}

func checkImmediateReceipt(cfg *Config, doc *domain.Document, b *Baseline) domain.Finding {
	return domain.Finding{
		Triggered: doc.IssuedAt.SameDay(doc.ReceivedAt),
		Category:  domain.CategoryImmediateReceipt,
		Severity:  domain.SeverityWarning,
		Icon:      "⏱️",
		Message:   "DTE recibido el mismo día de emisión (patrón inusual)",
		Action:    "Verificar autenticidad del documento en portal SII",
		Weight:    cfg.ImmediateReceiptWeight,
	}
}

func checkSuspiciousFolio(cfg *Config, doc *domain.Document, b *Baseline) domain.Finding {
	return domain.Finding{
		Triggered: isSuspiciousFolio(string(doc.Folio)),
		Category:  domain.CategorySuspiciousFolio,
		Severity:  domain.SeverityWarning,
		Icon:      "📄",
		Message: fmt.Sprintf("Folio %s tiene patrón sospechoso (números repetidos)",
			doc.Folio),
		Action: "Verificar autenticidad del folio",
		Weight: cfg.SuspiciousFolioWeight,
	}
}

// isSuspiciousFolio reports a folio made of a single repeated character
// (1111, 9999) or the ascending sequences 1234 and 12345.
func isSuspiciousFolio(folio string) bool {
	if folio == "1234" || folio == "12345" {
		return true
	}
	runes := []rune(folio)
	if len(runes) < 2 {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}

func checkPendingHighAmount(cfg *Config, doc *domain.Document, b *Baseline) domain.Finding {
	return domain.Finding{
		Triggered: doc.Status == cfg.PendingStatus && doc.TotalAmount > cfg.PendingAmountThreshold,
		Category:  domain.CategoryPendingHighAmount,
		Severity:  domain.SeverityWarningHigh,
		Icon:      "⚠️",
		Message: fmt.Sprintf("DTE pendiente con monto alto: $%s",
			formatAmount(doc.TotalAmount)),
		Action: "Priorizar revisión antes del vencimiento",
		Weight: cfg.PendingHighAmountWeight,
	}
}

func checkTaxMismatch(cfg *Config, doc *domain.Document, b *Baseline) domain.Finding {
	expected := math.Round(doc.NetAmount * cfg.TaxRate)
	return domain.Finding{
		Triggered: math.Abs(doc.TaxAmount-expected) > cfg.TaxTolerance,
		Category:  domain.CategoryIncorrectTax,
		Severity:  domain.SeverityWarningHigh,
		Icon:      "🧮",
		Message: fmt.Sprintf("IVA declarado ($%s) no corresponde al esperado ($%s)",
			formatAmount(doc.TaxAmount), formatAmount(expected)),
		Action: "Verificar cálculo de IVA y rechazar si es incorrecto",
		Weight: cfg.TaxMismatchWeight,
	}
}

func checkSuspiciousName(cfg *Config, doc *domain.Document, b *Baseline) domain.Finding {
	name := strings.ToLower(doc.IssuerName)
	triggered := false
	for _, kw := range cfg.SuspiciousKeywords {
		if strings.Contains(name, kw) {
			triggered = true
			break
		}
	}
	return domain.Finding{
		Triggered: triggered,
		Category:  domain.CategorySuspiciousName,
		Severity:  domain.SeverityWarningMedium,
		Icon:      "🏢",
		Message: fmt.Sprintf("Razón social contiene palabras sospechosas: %s",
			doc.IssuerName),
		Action: "Verificar existencia legal de la empresa",
		Weight: cfg.SuspiciousNameWeight,
	}
}

// formatAmount renders a CLP amount with dot thousands separators, the way
// the dashboard displays montos.
func formatAmount(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)

	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(c)
	}
	if frac != "" {
		sb.WriteString("," + frac[1:])
	}
	return sb.String()
}
