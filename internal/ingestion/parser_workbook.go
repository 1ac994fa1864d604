package ingestion

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/trimpulso/dtemonitor/internal/domain"
)

// workbook is the JSON export of the accounting spreadsheet: one array of
// row objects per sheet.
type workbook struct {
	Sheets map[string][]domain.Document `json:"hojas"`
}

// ParseWorkbookJSON parses an accounting workbook export. Rows keep their
// sheet of origin in SheetName. Sheet iteration order is not defined in the
// file format, so rows are appended sheet by sheet in name order.
func ParseWorkbookJSON(data []byte) ([]domain.Document, error) {
	var wb workbook
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets under \"hojas\"")
	}

	names := make([]string, 0, len(wb.Sheets))
	for name := range wb.Sheets {
		names = append(names, name)
	}
	slices.Sort(names)

	var docs []domain.Document
	for _, name := range names {
		for _, row := range wb.Sheets[name] {
			row.SheetName = name
			docs = append(docs, row)
		}
	}
	return docs, nil
}
