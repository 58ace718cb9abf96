package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/archivist-labs/archivist-core/internal/chunk"
	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven/mocks"
	"github.com/archivist-labs/archivist-core/internal/core/services"
)

func TestCoordinator_ScanOnStartupIndexesEverything(t *testing.T) {
	store := mocks.NewMockObjectStore()
	store.Put(domain.StorageObject{StorageKey: "docs/a.txt"}, []byte("hello world"))
	store.Put(domain.StorageObject{StorageKey: "docs/b.txt"}, []byte("goodbye world"))

	index := mocks.NewMockSearchIndex()
	embedder := chunk.NewEmbedder(mocks.NewMockEmbeddingService())
	pipeline := services.NewPipeline(store, index, embedder, mocks.NewMockOCRClient(), nil)

	c := New(Config{
		Pipeline:      pipeline,
		Store:         store,
		Index:         index,
		NumLanes:      2,
		LaneBuffer:    8,
		ScanOnStartup: true,
		DrainTimeout:  time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	stats := c.Stats()
	if stats.Indexed != 2 {
		t.Fatalf("expected 2 indexed, got %+v", stats)
	}
	if index.Count() != 2 {
		t.Fatalf("expected 2 records in index, got %d", index.Count())
	}
}

func TestCoordinator_QueueEventDeletesMessageOnlyAfterAllEventsComplete(t *testing.T) {
	store := mocks.NewMockObjectStore()
	store.Put(domain.StorageObject{StorageKey: "docs/a.txt"}, []byte("hello world"))
	store.Put(domain.StorageObject{StorageKey: "docs/b.txt"}, []byte("goodbye world"))

	index := mocks.NewMockSearchIndex()
	embedder := chunk.NewEmbedder(mocks.NewMockEmbeddingService())
	pipeline := services.NewPipeline(store, index, embedder, mocks.NewMockOCRClient(), nil)

	queue := mocks.NewMockEventQueue()
	queue.Enqueue(
		domain.WorkEvent{Kind: domain.EventKindCreate, StorageKey: "docs/a.txt"},
		domain.WorkEvent{Kind: domain.EventKindCreate, StorageKey: "docs/b.txt"},
	)

	c := New(Config{
		Pipeline:         pipeline,
		Store:            store,
		Index:            index,
		Queue:            queue,
		NumLanes:         2,
		LaneBuffer:       8,
		QueueWaitTimeout: 10 * time.Millisecond,
		QueueBatchSize:   10,
		DrainTimeout:     time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	stats := c.Stats()
	if stats.Indexed != 2 {
		t.Fatalf("expected 2 indexed, got %+v", stats)
	}
	if !queue.Deleted(1) {
		t.Error("expected queue message 1 to be deleted once both its events completed")
	}
	if queue.Pending() != 0 {
		t.Errorf("expected queue to be drained, %d still pending", queue.Pending())
	}
}

func TestCoordinator_ReconcileRemovesOrphanedIndexEntries(t *testing.T) {
	store := mocks.NewMockObjectStore()
	index := mocks.NewMockSearchIndex()
	embedder := chunk.NewEmbedder(mocks.NewMockEmbeddingService())
	pipeline := services.NewPipeline(store, index, embedder, mocks.NewMockOCRClient(), nil)

	// Seed the index with a record whose backing object no longer exists.
	store.Put(domain.StorageObject{StorageKey: "docs/gone.txt"}, []byte("will be removed"))
	pipeline.Process(context.Background(), domain.WorkEvent{Kind: domain.EventKindCreate, StorageKey: "docs/gone.txt"})
	store.Remove("docs/gone.txt")

	if index.Count() == 0 {
		t.Fatal("setup failed: expected a seeded index record")
	}

	lock := mocks.NewMockDistributedLock()

	c := New(Config{
		Pipeline:          pipeline,
		Store:             store,
		Index:             index,
		Lock:              lock,
		NumLanes:          2,
		LaneBuffer:        8,
		ReconcileInterval: 20 * time.Millisecond,
		DrainTimeout:      time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	stats := c.Stats()
	if stats.Deleted == 0 {
		t.Fatalf("expected reconciliation to emit at least one delete, got %+v", stats)
	}
	if index.Count() != 0 {
		t.Errorf("expected orphaned record gc'd, still have %d", index.Count())
	}
}

func TestLaneFor_SameKeyAlwaysSameLane(t *testing.T) {
	lane := laneFor("docs/a.txt", 8)
	for i := 0; i < 100; i++ {
		if laneFor("docs/a.txt", 8) != lane {
			t.Fatal("expected laneFor to be deterministic for a fixed key")
		}
	}
}
