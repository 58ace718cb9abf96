package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
)

// MockEventQueue is a mock implementation of driven.EventQueue for testing.
type MockEventQueue struct {
	mu       sync.Mutex
	pending  []mockMessage
	deleted  map[int]bool
	nextID   int
}

type mockMessage struct {
	id     int
	events []domain.WorkEvent
}

// NewMockEventQueue creates a new MockEventQueue.
func NewMockEventQueue() *MockEventQueue {
	return &MockEventQueue{deleted: make(map[int]bool)}
}

// Enqueue seeds a message for tests.
func (m *MockEventQueue) Enqueue(events ...domain.WorkEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.pending = append(m.pending, mockMessage{id: m.nextID, events: events})
}

func (m *MockEventQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]driven.QueueMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []driven.QueueMessage
	for len(m.pending) > 0 && len(out) < max {
		msg := m.pending[0]
		m.pending = m.pending[1:]
		out = append(out, driven.QueueMessage{Handle: msg.id, Events: msg.events})
	}
	return out, nil
}

func (m *MockEventQueue) Delete(ctx context.Context, handle any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := handle.(int); ok {
		m.deleted[id] = true
	}
	return nil
}

func (m *MockEventQueue) Ping(ctx context.Context) error { return nil }
func (m *MockEventQueue) Close() error                   { return nil }

// Deleted reports whether the message with this id has been deleted, for assertions.
func (m *MockEventQueue) Deleted(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleted[id]
}

// Pending reports how many messages are still queued, for assertions.
func (m *MockEventQueue) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
