package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"golang.org/x/text/encoding/charmap"
)

// extractText handles plain text (.txt) files: raw UTF-8, with a lossy
// decoding fallback for bytes that are not valid UTF-8 (legacy
// Windows-1252 uploads are the common case in practice).
func extractText(raw domain.RawDocument) (domain.ExtractedDocument, error) {
	text := decodeText(raw.Bytes)
	return finalize(raw.StorageKey, domain.ExtractionMethodPlainText, text, 0, nil), nil
}

func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	// Lossy fallback: re-decode assuming Windows-1252, the most common
	// legacy encoding behind invalid-UTF-8 uploads.
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "")
	}
	return string(decoded)
}
