// Package extract implements the Content Extractor: transforms a
// domain.RawDocument into a domain.ExtractedDocument.
//
// Dispatch is a closed variant over supported content types rather
// than a runtime-registered parser map: Extract decides the variant
// once, up front, from the storage_key's suffix, and each variant is
// an independent function sharing the same signature.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
)

// Deps carries the client handles the extractor needs, created once at
// startup and passed explicitly rather than reached for as globals.
type Deps struct {
	OCR    driven.OCRClient
	Logger *slog.Logger
}

// Extract transforms one RawDocument into an ExtractedDocument,
// dispatching on the lower-cased suffix of its storage_key.
func Extract(ctx context.Context, raw domain.RawDocument, deps Deps) (domain.ExtractedDocument, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	suffix := strings.ToLower(suffixOf(raw.StorageKey))

	switch suffix {
	case ".pdf":
		return extractPDF(ctx, raw, deps)
	case ".png", ".jpg", ".jpeg", ".tiff":
		return extractImage(ctx, raw, deps)
	case ".docx":
		return extractDOCX(raw)
	case ".xlsx", ".xls":
		return extractSpreadsheet(raw)
	case ".csv":
		return extractCSV(raw)
	case ".txt":
		return extractText(raw)
	default:
		return domain.ExtractedDocument{}, fmt.Errorf("%s: %w", suffix, domain.ErrUnsupportedFormat)
	}
}

func suffixOf(storageKey string) string {
	idx := strings.LastIndexByte(storageKey, '.')
	if idx < 0 {
		return ""
	}
	return storageKey[idx:]
}

// finalize applies the cleaning pipeline and fills in the
// ExtractedDocument's common fields.
func finalize(storageKey string, method domain.ExtractionMethod, rawText string, pageCount int, errs []string) domain.ExtractedDocument {
	return domain.ExtractedDocument{
		StorageKey:       storageKey,
		CleanedText:      Clean(rawText),
		ExtractionMethod: method,
		PageCount:        pageCount,
		ExtractionErrors: errs,
	}
}
