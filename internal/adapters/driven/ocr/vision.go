package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
)

var _ driven.OCRClient = (*VisionClient)(nil)

// VisionClient calls an OpenAI-compatible chat-completions endpoint
// with the page image as a base64 data-URI, and treats the response
// content as the extracted text.
type VisionClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewVisionClient creates a VisionClient. baseURL may point at any
// OpenAI-compatible vision endpoint.
func NewVisionClient(apiKey, baseURL, model string, timeout time.Duration) *VisionClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &VisionClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

const visionPrompt = "Extract all text content from this image exactly as it appears. " +
	"Do not summarize or reformat; return plain text only."

func (c *VisionClient) Extract(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: visionPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: dataURI,
						},
					},
				},
			},
		},
		MaxTokens: 4096,
	})
	if err != nil {
		return "", fmt.Errorf("vision ocr request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision ocr: empty response")
	}

	return resp.Choices[0].Message.Content, nil
}
