package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Folio is a DTE serial number. Upstream systems deliver it either as a JSON
// string or as a number; it is normalized to a string here because folio
// checks compare digits, not values.
type Folio string

func (f *Folio) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Folio(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("folio: %w", err)
	}
	*f = Folio(n.String())
	return nil
}

// Date is a calendar date. Accepts "2006-01-02" or RFC3339 on input and
// always renders as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid date %q", s)
		}
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// SameDay reports whether both dates fall on the same calendar day,
// ignoring time of day.
func (d Date) SameDay(other Date) bool {
	y1, m1, day1 := d.Date()
	y2, m2, day2 := other.Date()
	return y1 == y2 && m1 == m2 && day1 == day2
}

// Document is one DTE (Chilean electronic tax document) as received from the
// accounting import or the analyze endpoints. The JSON keys match the RCV
// export column names used by the existing dashboard. Documents are immutable
// inputs to the risk engine.
type Document struct {
	ID           int64   `json:"id,omitempty"`
	IssuerTaxID  string  `json:"RUT_Emisor" validate:"required"`
	IssuerName   string  `json:"Razon_Social_Emisor"`
	DocType      string  `json:"Tipo_DTE,omitempty"`
	Folio        Folio   `json:"Folio_DTE"`
	IssuedAt     Date    `json:"Fecha_Emision"`
	ReceivedAt   Date    `json:"Fecha_Recepcion"`
	NetAmount    float64 `json:"Monto_Neto"`
	TaxAmount    float64 `json:"Monto_IVA"`
	TotalAmount  float64 `json:"Monto_Total"`
	Status       string  `json:"Estado_RCV,omitempty"`
	IssuerRegion string  `json:"Region_Emisor,omitempty"`
	TaxCode      string  `json:"Codigo_Impuesto,omitempty"`

	// Import bookkeeping, absent on analyze payloads.
	SheetName  string    `json:"sheet_name,omitempty"`
	ImportedAt time.Time `json:"imported_at,omitempty"`
}
