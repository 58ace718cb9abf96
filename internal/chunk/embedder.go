package chunk

import (
	"context"
	"fmt"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
)

// BatchSize is the maximum number of chunks submitted per embedding
// request.
const BatchSize = 32

// Embedder vectorizes chunks via the configured EmbeddingService,
// batching requests and validating that the service returns one vector
// per requested chunk, each of the discovered vector dimension. Vectors
// are assigned to chunks by position; the order of the response is not
// otherwise checked.
type Embedder struct {
	Service driven.EmbeddingService
}

// NewEmbedder creates an Embedder bound to svc.
func NewEmbedder(svc driven.EmbeddingService) *Embedder {
	return &Embedder{Service: svc}
}

// Embed fills in the Vector field of every chunk, in place, batching
// up to BatchSize chunks per call to the embedding service.
func (e *Embedder) Embed(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	dim := e.Service.Dimensions()

	for start := 0; start < len(chunks); start += BatchSize {
		end := start + BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := e.Service.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: requested %d chunks, got %d vectors", domain.ErrEmbeddingFailed, len(batch), len(vectors))
		}

		for i, v := range vectors {
			if len(v) != dim {
				return nil, fmt.Errorf("%w: chunk %d has %d dims, want %d", domain.ErrDimensionMismatch, batch[i].ChunkIndex, len(v), dim)
			}
			chunks[start+i].Vector = v
		}
	}

	return chunks, nil
}
