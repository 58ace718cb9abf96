package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// MockSearchIndex is a mock implementation of driven.SearchIndex for testing.
type MockSearchIndex struct {
	mu         sync.RWMutex
	dim        int
	records    map[string][]domain.IndexedRecord // storage_key -> records
	byHash     map[domain.ContentFingerprint]string
}

// NewMockSearchIndex creates a new MockSearchIndex.
func NewMockSearchIndex() *MockSearchIndex {
	return &MockSearchIndex{
		records: make(map[string][]domain.IndexedRecord),
		byHash:  make(map[domain.ContentFingerprint]string),
	}
}

func (m *MockSearchIndex) EnsureIndex(ctx context.Context, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dim = dim
	return nil
}

func (m *MockSearchIndex) LookupByFingerprint(ctx context.Context, hash domain.ContentFingerprint) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.byHash[hash]
	return key, ok, nil
}

func (m *MockSearchIndex) UpsertDocument(ctx context.Context, storageKey string, fileName string, fileType string, hash domain.ContentFingerprint, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.records[storageKey]; ok {
		if len(old) > 0 && m.byHash[domain.ContentFingerprint(old[0].ContentHash)] == storageKey {
			delete(m.byHash, domain.ContentFingerprint(old[0].ContentHash))
		}
	}
	delete(m.records, storageKey)

	records := make([]domain.IndexedRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.IndexedRecord{
			RecordID:    fmt.Sprintf("%s#%d", storageKey, c.ChunkIndex),
			StorageKey:  storageKey,
			FileName:    fileName,
			FileType:    fileType,
			Content:     c.Text,
			ContentHash: string(hash),
			Vector:      c.Vector,
			ChunkIndex:  c.ChunkIndex,
			ChunkCount:  len(chunks),
			IndexedAt:   time.Now(),
		}
	}
	m.records[storageKey] = records
	m.byHash[hash] = storageKey
	return nil
}

func (m *MockSearchIndex) DeleteByStorageKey(ctx context.Context, storageKey string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, ok := m.records[storageKey]
	if !ok {
		return 0, nil
	}
	if len(records) > 0 && m.byHash[domain.ContentFingerprint(records[0].ContentHash)] == storageKey {
		delete(m.byHash, domain.ContentFingerprint(records[0].ContentHash))
	}
	delete(m.records, storageKey)
	return len(records), nil
}

func (m *MockSearchIndex) ListStorageKeys(ctx context.Context, cursor string) ([]string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	return keys, "", nil
}

// Helper methods for testing.

func (m *MockSearchIndex) RecordsFor(storageKey string) []domain.IndexedRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.IndexedRecord(nil), m.records[storageKey]...)
}

func (m *MockSearchIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rs := range m.records {
		n += len(rs)
	}
	return n
}
