package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// extractSpreadsheet handles .xlsx/.xls: per-sheet extraction, each
// sheet prefixed with "Sheet: <name>" and followed by its rows as
// tab-separated values.
func extractSpreadsheet(raw domain.RawDocument) (domain.ExtractedDocument, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw.Bytes))
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("%s: %w", err, domain.ErrExtractionFailed)
	}
	defer f.Close()

	var errs []string
	var b strings.Builder
	sheetCount := 0

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			errs = append(errs, fmt.Sprintf("sheet %q: %v", sheet, err))
			continue
		}
		if len(rows) == 0 {
			continue
		}

		sheetCount++
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}

	return finalize(raw.StorageKey, domain.ExtractionMethodSpreadsheet, b.String(), sheetCount, errs), nil
}
