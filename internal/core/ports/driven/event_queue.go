package driven

import (
	"context"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// QueueMessage is one long-polled message, possibly decoding to several
// WorkEvents (an object-store notification batch). The coordinator
// deletes the message only once every one of its Events has reached a
// terminal outcome.
type QueueMessage struct {
	Handle any
	Events []domain.WorkEvent
}

// EventQueue is the driven port onto the external, HTTP poll-based
// event queue: no registered callback, just an explicit Receive/Delete
// pair the coordinator drives itself.
type EventQueue interface {
	// Receive long-polls for up to max messages, waiting up to wait
	// for at least one. Returns an empty slice, not an error, on a
	// timeout with nothing available.
	Receive(ctx context.Context, max int, wait time.Duration) ([]QueueMessage, error)

	// Delete removes a message by its receipt handle. Deleting an
	// already-deleted or expired handle is not an error.
	Delete(ctx context.Context, handle any) error

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close releases resources held by the queue client.
	Close() error
}
