package driven

import (
	"context"
	"io"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// ObjectStore is the driven port onto the external, S3-compatible
// object store. The core never mutates objects through this port; it
// only reads metadata and bytes.
type ObjectStore interface {
	// List paginates over object keys under prefix. cursor is the
	// continuation token from a previous call, or "" for the first
	// page. Returns the page of objects, the cursor for the next page
	// (empty when exhausted), and any error.
	List(ctx context.Context, prefix string, cursor string) (objects []domain.StorageObject, nextCursor string, err error)

	// Stat retrieves metadata for a single key without downloading its
	// body. Returns domain.ErrNotFound if the key does not exist.
	Stat(ctx context.Context, storageKey string) (domain.StorageObject, error)

	// Get downloads one object's bytes. Returns domain.ErrNotFound if
	// the key does not exist.
	Get(ctx context.Context, storageKey string) (domain.RawDocument, error)

	// GetReader is like Get but streams the body, for callers that
	// want to avoid buffering large objects entirely in memory before
	// dispatch decides how to handle them.
	GetReader(ctx context.Context, storageKey string) (io.ReadCloser, domain.StorageObject, error)
}
