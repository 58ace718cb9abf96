package driven

import "context"

// OCRClient is the driven port onto whichever OCR backend is
// configured for this process (fast multipart endpoint, or a
// vision-LM chat-completions endpoint). The extractor never learns
// which one it is talking to: Extract always takes raw image bytes and
// returns text.
type OCRClient interface {
	// Extract performs OCR on one image, given as the original bytes of
	// an image file. PDF pages are not sent through this port.
	Extract(ctx context.Context, image []byte) (text string, err error)
}
