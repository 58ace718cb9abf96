package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// ocrRetries and ocrBackoff implement the extractor's network-failure
// policy: retry with exponential backoff, 3 attempts, then hard-fail.
const (
	ocrRetries = 3
	ocrBackoff = 500 * time.Millisecond
)

// extractImage handles .png/.jpg/.jpeg/.tiff: send raw bytes straight
// to the configured OCR backend.
func extractImage(ctx context.Context, raw domain.RawDocument, deps Deps) (domain.ExtractedDocument, error) {
	if deps.OCR == nil {
		return domain.ExtractedDocument{}, fmt.Errorf("%w: no OCR backend configured", domain.ErrOCRUnavailable)
	}
	text, err := ocrWithRetry(ctx, deps, raw.Bytes)
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("%w: %w", domain.ErrOCRUnavailable, err)
	}
	return finalize(raw.StorageKey, domain.ExtractionMethodImageOCR, text, 1, nil), nil
}

// ocrWithRetry calls the OCR client with exponential backoff on
// network/transient failure, per the extractor's failure semantics.
func ocrWithRetry(ctx context.Context, deps Deps, image []byte) (string, error) {
	var lastErr error
	backoff := ocrBackoff
	for attempt := 0; attempt < ocrRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := deps.OCR.Extract(ctx, image)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}
