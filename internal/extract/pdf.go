package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// extractPDF reads each page's text layer via ledongthuc/pdf's
// GetPlainText and concatenates page texts separated by form feed.
//
// This extractor has no PDF rasterizer in the corpus it's built from:
// page access goes through ledongthuc/pdf (the only PDF library
// available), which exposes the text layer but not a rasterized
// bitmap. Sending a blank, content-free canvas to the OCR backend
// would always yield empty text while looking like real work, so
// pages with no extractable text layer are recorded as soft
// extraction errors instead — see DESIGN.md for why no third-party
// rasterizer could be wired in to cover the scanned-page case.
func extractPDF(ctx context.Context, raw domain.RawDocument, deps Deps) (domain.ExtractedDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw.Bytes), int64(len(raw.Bytes)))
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("opening pdf: %w: %w", err, domain.ErrExtractionFailed)
	}

	numPages := reader.NumPage()
	var errs []string
	var b strings.Builder

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			errs = append(errs, fmt.Sprintf("page %d: text extraction: %v", i, err))
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			errs = append(errs, fmt.Sprintf("page %d: no extractable text layer", i))
			continue
		}

		if b.Len() > 0 {
			b.WriteByte('\f')
		}
		b.WriteString(text)
	}

	return finalize(raw.StorageKey, domain.ExtractionMethodPDFOCR, b.String(), numPages, errs), nil
}
