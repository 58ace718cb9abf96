package searchindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) (*Index, *httptest.Server) {
	t.Helper()
	// The v8 client rejects 2xx responses that lack this product header.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	idx, err := New(Config{Addresses: []string{srv.URL}, IndexName: "test-docs"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return idx, srv
}

func TestNew_DefaultIndexName(t *testing.T) {
	idx, err := New(Config{Addresses: []string{"http://localhost:9200"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if idx.name != "archivist-documents" {
		t.Errorf("expected default index name, got %q", idx.name)
	}
}

func TestPing_Healthy(t *testing.T) {
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	if err := idx.Ping(context.Background()); err != nil {
		t.Errorf("expected healthy ping, got %v", err)
	}
}

func TestPing_Unhealthy(t *testing.T) {
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer srv.Close()

	if err := idx.Ping(context.Background()); err == nil {
		t.Error("expected error for unhealthy cluster")
	}
}

func TestEnsureIndex_AlreadyExists(t *testing.T) {
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		t.Errorf("unexpected request %s %s when index already exists", r.Method, r.URL.Path)
	})
	defer srv.Close()

	if err := idx.EnsureIndex(context.Background(), 768); err != nil {
		t.Errorf("EnsureIndex: %v", err)
	}
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	var created bool
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			created = true
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"acknowledged":true}`))
		}
	})
	defer srv.Close()

	if err := idx.EnsureIndex(context.Background(), 768); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if !created {
		t.Error("expected index creation request")
	}
}

func TestLookupByFingerprint_Found(t *testing.T) {
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		resp := searchResponse{}
		resp.Hits.Hits = []struct {
			Source chunkDocument `json:"_source"`
		}{
			{Source: chunkDocument{StorageKey: "docs/a.pdf"}},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer srv.Close()

	key, found, err := idx.LookupByFingerprint(context.Background(), domain.ContentFingerprint("abc123"))
	if err != nil {
		t.Fatalf("LookupByFingerprint: %v", err)
	}
	if !found || key != "docs/a.pdf" {
		t.Errorf("expected a.pdf found, got key=%q found=%v", key, found)
	}
}

func TestLookupByFingerprint_NotFound(t *testing.T) {
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{})
	})
	defer srv.Close()

	_, found, err := idx.LookupByFingerprint(context.Background(), domain.ContentFingerprint("none"))
	if err != nil {
		t.Fatalf("LookupByFingerprint: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
}

func TestDeleteByStorageKey_NotFoundIsNotError(t *testing.T) {
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	n, err := idx.DeleteByStorageKey(context.Background(), "missing/key")
	if err != nil {
		t.Fatalf("DeleteByStorageKey: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 deleted, got %d", n)
	}
}

func TestDeleteByStorageKey_ReturnsCount(t *testing.T) {
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(deleteByQueryResponse{Deleted: 3})
	})
	defer srv.Close()

	n, err := idx.DeleteByStorageKey(context.Background(), "docs/a.pdf")
	if err != nil {
		t.Fatalf("DeleteByStorageKey: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 deleted, got %d", n)
	}
}

func TestUpsertDocument_EmptyChunksSkipsBulkCall(t *testing.T) {
	var bulkCalled bool
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/test-docs/_delete_by_query":
			json.NewEncoder(w).Encode(deleteByQueryResponse{Deleted: 0})
		case r.URL.Path == "/_bulk":
			bulkCalled = true
			json.NewEncoder(w).Encode(bulkResponse{Errors: false})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv.Close()

	err := idx.UpsertDocument(context.Background(), "docs/empty.pdf", "empty.pdf", "pdf", domain.ContentFingerprint("x"), nil)
	if err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	if bulkCalled {
		t.Error("expected no bulk call for zero chunks")
	}
}

func TestUpsertDocument_BulkErrorsSurfaceAsError(t *testing.T) {
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/test-docs/_delete_by_query":
			json.NewEncoder(w).Encode(deleteByQueryResponse{Deleted: 0})
		case r.URL.Path == "/_bulk":
			json.NewEncoder(w).Encode(bulkResponse{Errors: true})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv.Close()

	chunks := []domain.Chunk{{ChunkIndex: 0, Text: "hello", Vector: []float32{0.1, 0.2}}}
	err := idx.UpsertDocument(context.Background(), "docs/a.pdf", "a.pdf", "pdf", domain.ContentFingerprint("x"), chunks)
	if err == nil {
		t.Error("expected error when bulk response reports item errors")
	}
}

func TestListStorageKeys_PaginatesViaAfterKey(t *testing.T) {
	idx, srv := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		resp := compositeAggResponse{}
		resp.Aggregations.Keys.Buckets = []struct {
			Key struct {
				Key string `json:"key"`
			} `json:"key"`
		}{
			{Key: struct {
				Key string `json:"key"`
			}{Key: "docs/a.pdf"}},
		}
		resp.Aggregations.Keys.AfterKey.Key = "docs/a.pdf"
		json.NewEncoder(w).Encode(resp)
	})
	defer srv.Close()

	keys, cursor, err := idx.ListStorageKeys(context.Background(), "")
	if err != nil {
		t.Fatalf("ListStorageKeys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "docs/a.pdf" {
		t.Errorf("expected [docs/a.pdf], got %v", keys)
	}
	if cursor != "docs/a.pdf" {
		t.Errorf("expected cursor docs/a.pdf, got %q", cursor)
	}
}
