package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/trimpulso/dtemonitor/internal/domain"
)

type issuer struct {
	rut    string
	name   string
	region string
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	// Emission range: 2025-08-01 to 2025-10-31.
	startDate := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	dayRange := int(endDate.Sub(startDate).Hours() / 24)

	issuers := []issuer{
		{"76123456-7", "Comercial Andina SpA", "Metropolitana"},
		{"77890123-4", "Distribuidora del Pacífico Ltda", "Valparaíso"},
		{"78456789-0", "Servicios Industriales Rancagua S.A.", "O'Higgins"},
		{"79012345-6", "Importadora Central SpA", "Metropolitana"},
		{"80345678-9", "Transportes del Maipo Ltda", "Metropolitana"},
		{"81678901-2", "Constructora Costa Azul S.A.", "Valparaíso"},
		{"82901234-5", "Agrícola Cachapoal Ltda", "O'Higgins"},
		{"83234567-8", "Tecnología y Redes SpA", "Metropolitana"},
		{"84567890-1", "Alimentos del Valle S.A.", "Metropolitana"},
		{"85890123-4", "Ferretería Portuaria Ltda", "Valparaíso"},
		{"86123456-9", "Imprenta Providencia SpA", "Metropolitana"},
		{"87456789-2", "Laboratorio Quinta Región S.A.", "Valparaíso"},
	}

	statuses := []string{"Registrado", "Registrado", "Registrado", "Aprobado", "Pendiente"}
	docTypes := []string{"33", "33", "33", "34", "61"}

	var docs []domain.Document
	folio := 4000

	for _, iss := range issuers {
		// 12 to 25 historical documents per issuer.
		n := 12 + rng.Intn(14)
		for i := 0; i < n; i++ {
			folio += 1 + rng.Intn(9)

			day := rng.Intn(dayRange)
			issued := startDate.AddDate(0, 0, day)
			received := issued.AddDate(0, 0, 1+rng.Intn(5))

			// Net between 100k and 2.5M CLP.
			net := math.Round(100_000 + rng.Float64()*2_400_000)
			tax := math.Round(net * 0.19)

			docs = append(docs, domain.Document{
				IssuerTaxID:  iss.rut,
				IssuerName:   iss.name,
				DocType:      docTypes[rng.Intn(len(docTypes))],
				Folio:        domain.Folio(fmt.Sprintf("%d", folio)),
				IssuedAt:     domain.Date{Time: issued},
				ReceivedAt:   domain.Date{Time: received},
				NetAmount:    net,
				TaxAmount:    tax,
				TotalAmount:  net + tax,
				Status:       statuses[rng.Intn(len(statuses))],
				IssuerRegion: iss.region,
			})
		}
	}

	// A few seeded anomalies for demos: new issuers, bad folios, off regions,
	// inflated amounts, broken IVA.
	anomalies := []domain.Document{
		{
			IssuerTaxID: "11111111-1", IssuerName: "Comercial Express Temporal Ltda",
			DocType: "33", Folio: "9999",
			IssuedAt:   domain.NewDate(2025, 11, 8),
			ReceivedAt: domain.NewDate(2025, 11, 8),
			NetAmount:  21_000_000, TaxAmount: 3_990_000, TotalAmount: 24_990_000,
			Status: "Pendiente", IssuerRegion: "Aysén",
		},
		{
			IssuerTaxID: "96543210-5", IssuerName: "Inversiones Dudoso SpA",
			DocType: "33", Folio: "1234",
			IssuedAt:   domain.NewDate(2025, 11, 2),
			ReceivedAt: domain.NewDate(2025, 11, 4),
			NetAmount:  800_000, TaxAmount: 90_000, TotalAmount: 890_000,
			Status: "Registrado", IssuerRegion: "Metropolitana",
		},
	}
	docs = append(docs, anomalies...)

	writeJSONFile(filepath.Join(baseDir, "documents.json"), docs)
	fmt.Printf("Generated %d documents -> documents.json\n", len(docs))

	generateWorkbook(docs, baseDir)
	generateRCVCSV(docs[:40], baseDir)

	fmt.Println("Test data generation complete.")
}

// generateWorkbook writes the workbook-export form of the corpus, split into
// monthly sheets the way the accounting spreadsheet exports them.
func generateWorkbook(docs []domain.Document, baseDir string) {
	sheets := make(map[string][]domain.Document)
	for _, d := range docs {
		name := "Sin Fecha"
		if !d.IssuedAt.IsZero() {
			name = d.IssuedAt.Format("2006-01")
		}
		sheets[name] = append(sheets[name], d)
	}

	writeJSONFile(filepath.Join(baseDir, "workbook.json"),
		map[string]any{"hojas": sheets})
	fmt.Printf("Generated workbook with %d sheets -> workbook.json\n", len(sheets))
}

func generateRCVCSV(docs []domain.Document, baseDir string) {
	var sb strings.Builder
	sb.WriteString("tipo_dte;rut_emisor;razon_social;folio;fecha_emision;fecha_recepcion;monto_neto;monto_iva;monto_total;estado_rcv;region_emisor\n")

	for _, d := range docs {
		sb.WriteString(fmt.Sprintf("%s;%s;%s;%s;%s;%s;%.0f;%.0f;%.0f;%s;%s\n",
			d.DocType, d.IssuerTaxID, d.IssuerName, d.Folio,
			d.IssuedAt.Format("2006-01-02"), d.ReceivedAt.Format("2006-01-02"),
			d.NetAmount, d.TaxAmount, d.TotalAmount, d.Status, d.IssuerRegion))
	}

	path := filepath.Join(baseDir, "rcv_sample.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d rows -> rcv_sample.csv\n", len(docs))
}

func writeJSONFile(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal %s: %v\n", path, err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		os.Exit(1)
	}
}

func findTestdataDir() string {
	candidates := []string{"testdata", filepath.Join("..", "..", "testdata"), "."}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && fi.IsDir() {
			if _, err := os.Stat(filepath.Join(c, "generate")); err == nil {
				return c
			}
		}
	}
	return "testdata"
}
