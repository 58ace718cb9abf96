package chunk

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven/mocks"
)

// driftingEmbeddingService advertises one dimension but returns
// vectors of another, simulating a backend that drifts mid-run.
type driftingEmbeddingService struct {
	dim      int
	returned int
}

func (d *driftingEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, d.returned)
	}
	return out, nil
}
func (d *driftingEmbeddingService) Dimensions() int                       { return d.dim }
func (d *driftingEmbeddingService) Model() string                         { return "drifting" }
func (d *driftingEmbeddingService) HealthCheck(ctx context.Context) error { return nil }
func (d *driftingEmbeddingService) Close() error                          { return nil }

func TestEmbedder_FillsVectorsInOrder(t *testing.T) {
	svc := mocks.NewMockEmbeddingService()
	e := NewEmbedder(svc)

	chunks := []domain.Chunk{
		{ChunkIndex: 0, Text: "alpha"},
		{ChunkIndex: 1, Text: "beta"},
	}

	out, err := e.Embed(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i, c := range out {
		if len(c.Vector) != svc.Dimensions() {
			t.Errorf("chunk %d: expected %d dims, got %d", i, svc.Dimensions(), len(c.Vector))
		}
		want, err := svc.Embed(context.Background(), []string{c.Text})
		if err != nil {
			t.Fatalf("mock Embed: %v", err)
		}
		if !reflect.DeepEqual(c.Vector, want[0]) {
			t.Errorf("chunk %d (%q): vector does not match the one for its own text", i, c.Text)
		}
	}
}

func TestEmbedder_BatchesLargeChunkSets(t *testing.T) {
	svc := mocks.NewMockEmbeddingService()
	e := NewEmbedder(svc)

	chunks := make([]domain.Chunk, BatchSize*2+5)
	for i := range chunks {
		chunks[i] = domain.Chunk{ChunkIndex: i, Text: "chunk text"}
	}

	out, err := e.Embed(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(out) != len(chunks) {
		t.Fatalf("expected %d chunks back, got %d", len(chunks), len(out))
	}
	for i, c := range out {
		if c.Vector == nil {
			t.Fatalf("chunk %d missing a vector", i)
		}
	}
}

func TestEmbedder_ServiceFailurePropagates(t *testing.T) {
	svc := mocks.NewMockEmbeddingService()
	svc.SetFailNext(true)
	e := NewEmbedder(svc)

	_, err := e.Embed(context.Background(), []domain.Chunk{{ChunkIndex: 0, Text: "x"}})
	if !errors.Is(err, domain.ErrEmbeddingFailed) {
		t.Errorf("expected ErrEmbeddingFailed, got %v", err)
	}
}

func TestEmbedder_DimensionMismatchIsRejected(t *testing.T) {
	svc := &driftingEmbeddingService{dim: 384, returned: 128}
	e := NewEmbedder(svc)

	_, err := e.Embed(context.Background(), []domain.Chunk{{ChunkIndex: 0, Text: "x"}})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
