// Package ocr implements driven.OCRClient against the two configured
// OCR backends (fast multipart endpoint, vision-LM chat-completions
// endpoint). Extract's signature is identical on both so the extractor
// above never learns which one it is talking to.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
)

var _ driven.OCRClient = (*FastClient)(nil)

// FastClient calls the fast OCR endpoint: multipart/form-data POST
// with field "file", response {status, content, total_pages}.
type FastClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewFastClient creates a FastClient pointed at endpoint (e.g.
// "https://ocr.internal/ocr").
func NewFastClient(endpoint string, timeout time.Duration) *FastClient {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &FastClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type fastResponse struct {
	Status     string `json:"status"`
	Content    string `json:"content"`
	TotalPages int    `json:"total_pages"`
}

func (c *FastClient) Extract(ctx context.Context, image []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "page.png")
	if err != nil {
		return "", fmt.Errorf("building multipart request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("writing multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading ocr response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed fastResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing ocr response: %w", err)
	}
	if parsed.Status != "success" {
		return "", fmt.Errorf("ocr service reported status %q", parsed.Status)
	}

	return parsed.Content, nil
}
