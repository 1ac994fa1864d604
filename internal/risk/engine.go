package risk

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trimpulso/dtemonitor/internal/domain"
)

// ErrEmptyBatch is returned by Statistics when there are no assessments to
// summarise; the mean score would be undefined.
var ErrEmptyBatch = errors.New("risk: empty batch")

// Engine evaluates documents against the configured rule set and a shared
// baseline. Evaluation is deterministic and side-effect free, so a single
// Engine is safe for concurrent use.
type Engine struct {
	cfg      Config
	baseline *Baseline
	rules    []Rule
}

// NewEngine creates an engine with the fixed rule registry.
func NewEngine(cfg Config, baseline *Baseline) *Engine {
	return &Engine{
		cfg:      cfg,
		baseline: baseline,
		rules:    ruleset(),
	}
}

// Baseline returns the baseline the engine evaluates against.
func (e *Engine) Baseline() *Baseline {
	return e.baseline
}

// Evaluate runs every rule over the document in registry order and
// aggregates the triggered findings into an assessment.
func (e *Engine) Evaluate(doc *domain.Document) domain.RiskAssessment {
	var findings []domain.Finding
	score := 0

	for _, rule := range e.rules {
		f := rule(&e.cfg, doc, e.baseline)
		if !f.Triggered {
			continue
		}
		findings = append(findings, f)
		score += f.Weight
	}

	level := e.levelFor(score)

	return domain.RiskAssessment{
		IssuerTaxID:      doc.IssuerTaxID,
		IssuerName:       doc.IssuerName,
		Folio:            doc.Folio,
		TotalAmount:      doc.TotalAmount,
		Findings:         findings,
		Score:            score,
		Level:            level,
		RequiresApproval: level != domain.RiskLow,
		Blocked:          level == domain.RiskCritical,
		Recommendation:   recommendation(level, findings),
	}
}

func (e *Engine) levelFor(score int) domain.RiskLevel {
	switch {
	case score >= e.cfg.CriticalThreshold:
		return domain.RiskCritical
	case score >= e.cfg.MediumThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func recommendation(level domain.RiskLevel, findings []domain.Finding) string {
	actions := make([]string, 0, len(findings))
	for _, f := range findings {
		actions = append(actions, f.Action)
	}
	joined := strings.Join(actions, "; ")

	switch level {
	case domain.RiskCritical:
		return "🚨 BLOQUEAR REGISTRO AUTOMÁTICO. " + joined +
			". Requiere validación por supervisor antes de continuar."
	case domain.RiskMedium:
		return "⚠️ REVISAR MANUALMENTE. " + joined +
			". Aprobar solo después de verificación."
	default:
		if joined == "" {
			joined = "Puede procesar normalmente"
		}
		return "✅ Riesgo bajo. " + joined + "."
	}
}

// BuildReport packages an assessment into the reporting shape returned by
// the analyze endpoint. The timestamp is the report generation time.
func (e *Engine) BuildReport(a *domain.RiskAssessment) domain.Report {
	actions := make([]domain.ReportAction, 0, len(a.Findings))
	for _, f := range a.Findings {
		actions = append(actions, domain.ReportAction{
			Category: f.Category,
			Message:  f.Message,
			Action:   f.Action,
		})
	}

	return domain.Report{
		Timestamp: time.Now().UTC(),
		Document: domain.ReportDocument{
			IssuerTaxID: a.IssuerTaxID,
			IssuerName:  a.IssuerName,
			Folio:       a.Folio,
			TotalAmount: a.TotalAmount,
		},
		Evaluation: domain.ReportEvaluation{
			Score:            a.Score,
			Level:            a.Level,
			FindingCount:     len(a.Findings),
			RequiresApproval: a.RequiresApproval,
			Blocked:          a.Blocked,
		},
		Findings:       a.Findings,
		Recommendation: a.Recommendation,
		Actions:        actions,
	}
}

// EvaluateBatch evaluates every document, preserving input order in the
// result. Per-document evaluation is independent, so the batch is fanned out
// across workers; results are identical to a sequential pass.
func (e *Engine) EvaluateBatch(ctx context.Context, docs []domain.Document) []domain.BatchResult {
	results := make([]domain.BatchResult, len(docs))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range docs {
		i := i
		g.Go(func() error {
			results[i] = domain.BatchResult{
				Document:   docs[i],
				Assessment: e.Evaluate(&docs[i]),
			}
			return nil
		})
	}
	_ = g.Wait() // rules cannot fail

	return results
}

// Statistics tallies a batch of assessments in one pass. The tier counts
// always sum to the batch size.
func Statistics(assessments []domain.RiskAssessment) (*domain.BatchStatistics, error) {
	if len(assessments) == 0 {
		return nil, ErrEmptyBatch
	}

	stats := &domain.BatchStatistics{
		Total: len(assessments),
		ByLevel: map[domain.RiskLevel]int{
			domain.RiskLow:      0,
			domain.RiskMedium:   0,
			domain.RiskCritical: 0,
		},
		ByCategory: make(map[domain.FindingCategory]int),
	}

	scoreSum := 0
	for i := range assessments {
		a := &assessments[i]
		stats.ByLevel[a.Level]++
		if a.Blocked {
			stats.Blocked++
		}
		if a.RequiresApproval {
			stats.RequireApproval++
		}
		for _, f := range a.Findings {
			stats.ByCategory[f.Category]++
		}
		scoreSum += a.Score
	}
	stats.AverageScore = float64(scoreSum) / float64(len(assessments))

	return stats, nil
}
