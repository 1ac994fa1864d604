package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimpulso/dtemonitor/internal/domain"
)

func TestParseWorkbookJSON(t *testing.T) {
	data := []byte(`{
		"hojas": {
			"Octubre": [
				{
					"RUT_Emisor": "77890123-4",
					"Razon_Social_Emisor": "Distribuidora del Pacífico Ltda",
					"Tipo_DTE": "33",
					"Folio_DTE": 2201,
					"Fecha_Emision": "2025-10-01",
					"Fecha_Recepcion": "2025-10-03",
					"Monto_Neto": 640000,
					"Monto_IVA": 121600,
					"Monto_Total": 761600,
					"Estado_RCV": "Pendiente",
					"Region_Emisor": "Valparaíso"
				}
			],
			"Septiembre": [
				{
					"RUT_Emisor": "76123456-7",
					"Razon_Social_Emisor": "Comercial Andina SpA",
					"Tipo_DTE": "33",
					"Folio_DTE": "4821",
					"Fecha_Emision": "2025-09-02",
					"Fecha_Recepcion": "2025-09-05",
					"Monto_Neto": 1000000,
					"Monto_IVA": 190000,
					"Monto_Total": 1190000,
					"Estado_RCV": "Registrado",
					"Region_Emisor": "Metropolitana"
				}
			]
		}
	}`)

	docs, err := ParseWorkbookJSON(data)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Sheets are appended in name order.
	assert.Equal(t, "Octubre", docs[0].SheetName)
	assert.Equal(t, "Septiembre", docs[1].SheetName)

	// Numeric folio is normalized to its digit string.
	assert.Equal(t, domain.Folio("2201"), docs[0].Folio)
	assert.Equal(t, domain.Folio("4821"), docs[1].Folio)

	assert.Equal(t, "76123456-7", docs[1].IssuerTaxID)
	assert.Equal(t, 1_190_000.0, docs[1].TotalAmount)
	assert.True(t, docs[1].IssuedAt.SameDay(domain.NewDate(2025, time.September, 2)))
}

func TestParseWorkbookJSONNoSheets(t *testing.T) {
	_, err := ParseWorkbookJSON([]byte(`{"hojas": {}}`))
	assert.ErrorContains(t, err, "no sheets")

	_, err = ParseWorkbookJSON([]byte(`{"otro": []}`))
	assert.ErrorContains(t, err, "no sheets")
}

func TestParseWorkbookJSONMalformed(t *testing.T) {
	_, err := ParseWorkbookJSON([]byte(`{"hojas": `))
	assert.Error(t, err)
}

const rcvHeader = "tipo_dte;rut_emisor;razon_social;folio;fecha_emision;fecha_recepcion;monto_neto;monto_iva;monto_total;estado_rcv;region_emisor\n"

func TestParseRCVCSV(t *testing.T) {
	data := []byte(rcvHeader +
		"33;76123456-7;Comercial Andina SpA;4821;2025-09-02;2025-09-05;1000000;190000;1190000;Registrado;Metropolitana\n" +
		"33;77890123-4;Distribuidora del Pacífico Ltda;2201;01-10-2025;03-10-2025;640000;121600;761600;Pendiente;Valparaíso\n")

	docs, err := ParseRCVCSV(data)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "76123456-7", docs[0].IssuerTaxID)
	assert.Equal(t, domain.Folio("4821"), docs[0].Folio)
	assert.Equal(t, "Metropolitana", docs[0].IssuerRegion)
	assert.Equal(t, 190_000.0, docs[0].TaxAmount)

	// Day-first Chilean date format.
	assert.True(t, docs[1].IssuedAt.SameDay(domain.NewDate(2025, time.October, 1)))
	assert.True(t, docs[1].ReceivedAt.SameDay(domain.NewDate(2025, time.October, 3)))
}

func TestParseRCVCSVBadAmount(t *testing.T) {
	data := []byte(rcvHeader +
		"33;76123456-7;Comercial Andina SpA;4821;2025-09-02;2025-09-05;un millón;190000;1190000;Registrado;Metropolitana\n")

	_, err := ParseRCVCSV(data)
	assert.ErrorContains(t, err, "line 2 monto_neto")
}

func TestParseRCVCSVBadDate(t *testing.T) {
	data := []byte(rcvHeader +
		"33;76123456-7;Comercial Andina SpA;4821;2025/09/02;2025-09-05;1000000;190000;1190000;Registrado;Metropolitana\n")

	_, err := ParseRCVCSV(data)
	assert.ErrorContains(t, err, "line 2 fecha_emision")
}

func TestParseRCVCSVShortHeader(t *testing.T) {
	_, err := ParseRCVCSV([]byte("tipo_dte;rut_emisor;folio\n"))
	assert.ErrorContains(t, err, "at least 10 columns")
}

func TestParseRCVCSVEmptyDates(t *testing.T) {
	data := []byte(rcvHeader +
		"33;76123456-7;Comercial Andina SpA;4821;;;1000000;190000;1190000;Registrado;Metropolitana\n")

	docs, err := ParseRCVCSV(data)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.True(t, docs[0].IssuedAt.IsZero())
	assert.True(t, docs[0].ReceivedAt.IsZero())
}
