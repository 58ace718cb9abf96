package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// extractCSV renders rows as tab-separated values, in document order.
func extractCSV(raw domain.RawDocument) (domain.ExtractedDocument, error) {
	r := csv.NewReader(bytes.NewReader(raw.Bytes))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var errs []string
	var b strings.Builder
	rowNum := 0
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			rowNum++
			errs = append(errs, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		rowNum++
		b.WriteString(strings.Join(record, "\t"))
		b.WriteByte('\n')
	}

	return finalize(raw.StorageKey, domain.ExtractionMethodCSVText, b.String(), 0, errs), nil
}
