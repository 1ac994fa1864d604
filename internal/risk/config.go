package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the risk engine: rule weights, thresholds,
// the region allow-list and the suspicious-keyword list. Detection
// sensitivity is adjusted here, never inside rule logic.
type Config struct {
	AllowedRegions     []string `yaml:"allowed_regions"`
	SuspiciousKeywords []string `yaml:"suspicious_keywords"`

	NewIssuerWeight int `yaml:"new_issuer_weight"`
	RegionWeight    int `yaml:"region_weight"`

	AbnormalAmountWeight int     `yaml:"abnormal_amount_weight"`
	AbnormalAmountFactor float64 `yaml:"abnormal_amount_factor"`

	ImmediateReceiptWeight int `yaml:"immediate_receipt_weight"`
	SuspiciousFolioWeight  int `yaml:"suspicious_folio_weight"`

	PendingHighAmountWeight int     `yaml:"pending_high_amount_weight"`
	PendingStatus           string  `yaml:"pending_status"`
	PendingAmountThreshold  float64 `yaml:"pending_amount_threshold"`

	TaxMismatchWeight int     `yaml:"tax_mismatch_weight"`
	TaxRate           float64 `yaml:"tax_rate"`
	TaxTolerance      float64 `yaml:"tax_tolerance"`

	SuspiciousNameWeight int `yaml:"suspicious_name_weight"`

	// FallbackAverage is used as global average when no history is loaded.
	FallbackAverage float64 `yaml:"fallback_average"`

	// Tier boundaries, inclusive: score >= Critical is CRÍTICO,
	// score >= Medium is MEDIO, anything below is BAJO.
	MediumThreshold   int `yaml:"medium_threshold"`
	CriticalThreshold int `yaml:"critical_threshold"`
}

// DefaultConfig returns the production rule set.
func DefaultConfig() Config {
	return Config{
		AllowedRegions:     []string{"Metropolitana", "Valparaíso", "O'Higgins"},
		SuspiciousKeywords: []string{"fantasma", "dudoso", "temporal", "express", "inmediato"},

		NewIssuerWeight: 30,
		RegionWeight:    20,

		AbnormalAmountWeight: 40,
		AbnormalAmountFactor: 3,

		ImmediateReceiptWeight: 10,
		SuspiciousFolioWeight:  15,

		PendingHighAmountWeight: 25,
		PendingStatus:           "Pendiente",
		PendingAmountThreshold:  5_000_000,

		TaxMismatchWeight: 30,
		TaxRate:           0.19,
		TaxTolerance:      100,

		SuspiciousNameWeight: 20,

		FallbackAverage: 500_000,

		MediumThreshold:   21,
		CriticalThreshold: 51,
	}
}

// LoadConfig reads a YAML rule-tuning file over the defaults, so a partial
// file only overrides what it names.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read rules config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse rules config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations that would break tier ordering or scoring.
func (c Config) Validate() error {
	if c.MediumThreshold <= 0 || c.CriticalThreshold <= c.MediumThreshold {
		return fmt.Errorf("invalid tier thresholds: medium=%d critical=%d",
			c.MediumThreshold, c.CriticalThreshold)
	}
	for name, w := range map[string]int{
		"new_issuer_weight":          c.NewIssuerWeight,
		"region_weight":              c.RegionWeight,
		"abnormal_amount_weight":     c.AbnormalAmountWeight,
		"immediate_receipt_weight":   c.ImmediateReceiptWeight,
		"suspicious_folio_weight":    c.SuspiciousFolioWeight,
		"pending_high_amount_weight": c.PendingHighAmountWeight,
		"tax_mismatch_weight":        c.TaxMismatchWeight,
		"suspicious_name_weight":     c.SuspiciousNameWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, w)
		}
	}
	if c.AbnormalAmountFactor <= 0 {
		return fmt.Errorf("abnormal_amount_factor must be positive, got %g", c.AbnormalAmountFactor)
	}
	if c.TaxRate <= 0 || c.TaxRate >= 1 {
		return fmt.Errorf("tax_rate must be in (0,1), got %g", c.TaxRate)
	}
	return nil
}
