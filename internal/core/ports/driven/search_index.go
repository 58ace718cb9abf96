package driven

import (
	"context"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// SearchIndex is the driven port onto the external full-text + vector
// search index (component C, the Index Driver). Every mutating
// operation is idempotent: the guarantees are listed per method.
type SearchIndex interface {
	// EnsureIndex creates the index with the declared mapping
	// (storage_key keyword, content_hash keyword, content text,
	// vector dense_vector[dim] cosine) if it does not already exist.
	// Idempotent.
	EnsureIndex(ctx context.Context, dim int) error

	// LookupByFingerprint returns the storage_key of the first
	// existing record holding this content hash, or "" if none.
	LookupByFingerprint(ctx context.Context, hash domain.ContentFingerprint) (storageKey string, found bool, err error)

	// UpsertDocument removes every existing record for storageKey then
	// inserts one record per chunk. Atomic from a reader's perspective
	// only in the delete-then-insert sense described in the index
	// driver's contract: a reader racing the swap sees either the old
	// or the new version, never a mix of chunks from each.
	UpsertDocument(ctx context.Context, storageKey string, fileName string, fileType string, hash domain.ContentFingerprint, chunks []domain.Chunk) error

	// DeleteByStorageKey removes every record whose storage_key equals
	// the argument and returns the count removed. Deleting an absent
	// key returns 0, nil.
	DeleteByStorageKey(ctx context.Context, storageKey string) (deleted int, err error)

	// ListStorageKeys returns the set of distinct storage_keys
	// currently in the index, paginated. cursor is "" for the first
	// page; nextCursor is "" once exhausted. Snapshot consistency
	// across pages is not required.
	ListStorageKeys(ctx context.Context, cursor string) (keys []string, nextCursor string, err error)
}
