package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/trimpulso/dtemonitor/internal/domain"
)

// ParseRCVCSV parses a semicolon-separated RCV (registro de compras y
// ventas) export.
//
// Expected header:
//
//	tipo_dte;rut_emisor;razon_social;folio;fecha_emision;fecha_recepcion;monto_neto;monto_iva;monto_total;estado_rcv;region_emisor
func ParseRCVCSV(data []byte) ([]domain.Document, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = ';'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 10 {
		return nil, fmt.Errorf("expected at least 10 columns, got %d", len(header))
	}

	var docs []domain.Document
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if len(row) < 10 {
			continue
		}

		neto, err := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d monto_neto: %w", lineNum, err)
		}
		iva, err := strconv.ParseFloat(strings.TrimSpace(row[7]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d monto_iva: %w", lineNum, err)
		}
		total, err := strconv.ParseFloat(strings.TrimSpace(row[8]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d monto_total: %w", lineNum, err)
		}

		issued, err := parseCSVDate(strings.TrimSpace(row[4]))
		if err != nil {
			return nil, fmt.Errorf("line %d fecha_emision: %w", lineNum, err)
		}
		received, err := parseCSVDate(strings.TrimSpace(row[5]))
		if err != nil {
			return nil, fmt.Errorf("line %d fecha_recepcion: %w", lineNum, err)
		}

		doc := domain.Document{
			DocType:     strings.TrimSpace(row[0]),
			IssuerTaxID: strings.TrimSpace(row[1]),
			IssuerName:  strings.TrimSpace(row[2]),
			Folio:       domain.Folio(strings.TrimSpace(row[3])),
			IssuedAt:    issued,
			ReceivedAt:  received,
			NetAmount:   neto,
			TaxAmount:   iva,
			TotalAmount: total,
			Status:      strings.TrimSpace(row[9]),
		}
		if len(row) > 10 {
			doc.IssuerRegion = strings.TrimSpace(row[10])
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func parseCSVDate(s string) (domain.Date, error) {
	if s == "" {
		return domain.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		// Some RCV exports use Chilean day-first dates.
		t, err = time.Parse("02-01-2006", s)
		if err != nil {
			return domain.Date{}, err
		}
	}
	return domain.Date{Time: t}, nil
}
