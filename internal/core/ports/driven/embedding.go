package driven

import "context"

// EmbeddingService generates text embeddings for chunks (component B).
type EmbeddingService interface {
	// Embed generates embeddings for a batch of texts, up to the
	// service's batch limit. The returned vectors are in the same
	// order as texts; callers MUST treat a length or order mismatch
	// as a batch failure.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension, discovered once at
	// startup and cached by the adapter.
	Dimensions() int

	// Model returns the model name the adapter requests.
	Model() string

	// HealthCheck verifies the embedding service is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service.
	Close() error
}
