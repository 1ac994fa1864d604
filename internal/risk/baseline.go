package risk

import (
	"sync"

	"github.com/trimpulso/dtemonitor/internal/domain"
)

type issuerStats struct {
	total float64
	count int
}

// Baseline holds the historical document population the anomaly checks
// compare against: the set of known issuers and per-issuer/global amount
// averages. It is loaded wholesale (each Load replaces the previous
// baseline) and read concurrently by evaluations, hence the RWMutex.
type Baseline struct {
	mu       sync.RWMutex
	fallback float64

	issuers     map[string]issuerStats
	globalTotal float64
	globalCount int
}

// NewBaseline returns an empty baseline. fallbackAverage is reported as the
// global average until history is loaded.
func NewBaseline(fallbackAverage float64) *Baseline {
	return &Baseline{
		fallback: fallbackAverage,
		issuers:  make(map[string]issuerStats),
	}
}

// Load replaces the entire baseline with the given historical documents.
// Documents without an issuer tax ID still count toward the global average
// but never register as known issuers.
func (b *Baseline) Load(docs []domain.Document) {
	issuers := make(map[string]issuerStats, len(docs))
	var total float64

	for i := range docs {
		d := &docs[i]
		total += d.TotalAmount
		if d.IssuerTaxID == "" {
			continue
		}
		s := issuers[d.IssuerTaxID]
		s.total += d.TotalAmount
		s.count++
		issuers[d.IssuerTaxID] = s
	}

	b.mu.Lock()
	b.issuers = issuers
	b.globalTotal = total
	b.globalCount = len(docs)
	b.mu.Unlock()
}

// IsKnownIssuer reports whether the issuer appears in the loaded history.
func (b *Baseline) IsKnownIssuer(taxID string) bool {
	if taxID == "" {
		return false
	}
	b.mu.RLock()
	_, ok := b.issuers[taxID]
	b.mu.RUnlock()
	return ok
}

// IssuerAverage returns the historical mean total amount for the issuer,
// or false when the issuer has no history.
func (b *Baseline) IssuerAverage(taxID string) (float64, bool) {
	b.mu.RLock()
	s, ok := b.issuers[taxID]
	b.mu.RUnlock()
	if !ok || s.count == 0 {
		return 0, false
	}
	return s.total / float64(s.count), true
}

// GlobalAverage returns the mean total amount over the entire history, or
// the configured fallback when no history is loaded.
func (b *Baseline) GlobalAverage() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.globalCount == 0 {
		return b.fallback
	}
	return b.globalTotal / float64(b.globalCount)
}

// KnownIssuers returns the number of distinct issuers in the history.
func (b *Baseline) KnownIssuers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.issuers)
}

// Size returns the number of historical documents loaded.
func (b *Baseline) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.globalCount
}
