// Package embedding implements the driven.EmbeddingService port
// against a generic embedding HTTP contract: POST /embed
// {model, text, normalize}, response {embedding: [...]}.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*Client)(nil)

// Client implements driven.EmbeddingService over the generic
// /embed HTTP endpoint.
type Client struct {
	baseURL    string
	model      string
	normalize  bool
	dimensions int
	httpClient *http.Client
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Model     string
	Normalize bool
	Timeout   time.Duration
}

const (
	embedRetries     = 3
	embedBaseBackoff = 200 * time.Millisecond
)

// New creates a Client and discovers the endpoint's vector dimension
// once by issuing a single probe request, caching it for the life of
// the process.
func New(ctx context.Context, cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		normalize: cfg.Normalize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	vectors, err := c.embedBatch(ctx, []string{"dimension probe"})
	if err != nil {
		return nil, fmt.Errorf("discovering embedding dimension: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("discovering embedding dimension: expected 1 vector, got %d", len(vectors))
	}
	c.dimensions = len(vectors[0])

	return c, nil
}

type embedRequest struct {
	Model     string   `json:"model"`
	Text      []string `json:"text"`
	Normalize bool     `json:"normalize"`
}

type embedResponse struct {
	Embedding [][]float32 `json:"embedding"`
}

// Embed sends one batch POST for texts and returns vectors in request
// order. Responses of a length that does not match c.dimensions (once
// discovered) are rejected by the caller, not here: discovery only
// happens once, at New.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embedBatch(ctx, texts)
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embedRequest{
		Model:     c.model,
		Text:      texts,
		Normalize: c.normalize,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	var lastErr error
	backoff := embedBaseBackoff
	for attempt := 0; attempt < embedRetries; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(rand.Int63n(int64(backoff)))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff + jitter):
			}
			backoff *= 2
		}

		resp, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, lastErr)
}

// doRequest issues one HTTP POST. The bool return reports whether the
// failure is worth retrying (transient network or 5xx); 4xx responses
// are not retried.
func (c *Client) doRequest(ctx context.Context, body []byte) ([][]float32, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("embedding service returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("embedding service returned %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response: %w", err)
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, false, fmt.Errorf("parsing response: %w", err)
	}

	return parsed.Embedding, false, nil
}

func (c *Client) Dimensions() int { return c.dimensions }
func (c *Client) Model() string   { return c.model }

func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.embedBatch(ctx, []string{"health check"})
	return err
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
