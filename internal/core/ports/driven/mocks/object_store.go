package mocks

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// MockObjectStore is a mock implementation of driven.ObjectStore for testing.
type MockObjectStore struct {
	mu      sync.RWMutex
	objects map[string]domain.RawDocument
	meta    map[string]domain.StorageObject
}

// NewMockObjectStore creates a new MockObjectStore.
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		objects: make(map[string]domain.RawDocument),
		meta:    make(map[string]domain.StorageObject),
	}
}

// Put seeds an object for tests.
func (m *MockObjectStore) Put(obj domain.StorageObject, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj.Size = int64(len(body))
	m.meta[obj.StorageKey] = obj
	m.objects[obj.StorageKey] = domain.RawDocument{
		StorageKey:  obj.StorageKey,
		Bytes:       body,
		ContentType: obj.ContentType,
		Size:        obj.Size,
	}
}

// Remove deletes an object for tests (simulates an out-of-band delete).
func (m *MockObjectStore) Remove(storageKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.meta, storageKey)
	delete(m.objects, storageKey)
}

func (m *MockObjectStore) List(ctx context.Context, prefix string, cursor string) ([]domain.StorageObject, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.meta {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	objs := make([]domain.StorageObject, 0, len(keys))
	for _, k := range keys {
		objs = append(objs, m.meta[k])
	}
	return objs, "", nil
}

func (m *MockObjectStore) Stat(ctx context.Context, storageKey string) (domain.StorageObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.meta[storageKey]
	if !ok {
		return domain.StorageObject{}, domain.ErrNotFound
	}
	return obj, nil
}

func (m *MockObjectStore) Get(ctx context.Context, storageKey string) (domain.RawDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.objects[storageKey]
	if !ok {
		return domain.RawDocument{}, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockObjectStore) GetReader(ctx context.Context, storageKey string) (io.ReadCloser, domain.StorageObject, error) {
	doc, err := m.Get(ctx, storageKey)
	if err != nil {
		return nil, domain.StorageObject{}, err
	}
	obj, _ := m.Stat(ctx, storageKey)
	return io.NopCloser(bytes.NewReader(doc.Bytes)), obj, nil
}
