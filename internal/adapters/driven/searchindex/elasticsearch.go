// Package searchindex implements driven.SearchIndex against
// Elasticsearch: one index holding one document per chunk, with a
// dense_vector field for the embedding and a keyword field for the
// content fingerprint dedup lookup.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
)

var _ driven.SearchIndex = (*Index)(nil)

// Index implements driven.SearchIndex over a single Elasticsearch index.
type Index struct {
	client *elasticsearch.Client
	name   string
}

// Config configures an Index.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	IndexName string
}

// New creates an Index. The underlying index is not created until
// EnsureIndex runs, since its mapping depends on the embedding
// dimension discovered at startup.
func New(cfg Config) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	name := cfg.IndexName
	if name == "" {
		name = "archivist-documents"
	}

	return &Index{client: client, name: name}, nil
}

// Ping checks cluster reachability.
func (idx *Index) Ping(ctx context.Context) error {
	res, err := idx.client.Ping(idx.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping elasticsearch: %s", res.String())
	}
	return nil
}

type chunkDocument struct {
	StorageKey  string    `json:"storage_key"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Vector      []float32 `json:"embedding"`
	ChunkIndex  int       `json:"chunk_index"`
	ChunkCount  int       `json:"chunk_count"`
	IndexedAt   string    `json:"indexed_at"`
}

// EnsureIndex creates the index with a mapping sized to dim if it does
// not already exist. Safe to call on every startup.
func (ix *Index) EnsureIndex(ctx context.Context, dim int) error {
	exists, err := esapi.IndicesExistsRequest{Index: []string{ix.name}}.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("check index existence: %w", err)
	}
	defer exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"storage_key":   {"type": "keyword"},
				"file_name":     {"type": "keyword"},
				"file_type":     {"type": "keyword"},
				"content":       {"type": "text"},
				"content_hash":  {"type": "keyword"},
				"embedding":     {"type": "dense_vector", "dims": %d, "index": true, "similarity": "cosine"},
				"chunk_index":   {"type": "integer"},
				"chunk_count":   {"type": "integer"},
				"indexed_at":    {"type": "date"}
			}
		}
	}`, dim)

	resp, err := esapi.IndicesCreateRequest{
		Index: ix.name,
		Body:  strings.NewReader(mapping),
	}.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("create index: %s", resp.String())
	}
	return nil
}

// LookupByFingerprint finds the storage key of any previously indexed
// document sharing hash, if one exists.
func (ix *Index) LookupByFingerprint(ctx context.Context, hash domain.ContentFingerprint) (string, bool, error) {
	query := fmt.Sprintf(`{"size":1,"query":{"term":{"content_hash":%q}}}`, string(hash))

	resp, err := esapi.SearchRequest{
		Index: []string{ix.name},
		Body:  strings.NewReader(query),
	}.Do(ctx, ix.client)
	if err != nil {
		return "", false, fmt.Errorf("lookup by fingerprint: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		if resp.StatusCode == 404 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup by fingerprint: %s", resp.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("decode lookup response: %w", err)
	}
	if len(parsed.Hits.Hits) == 0 {
		return "", false, nil
	}

	return parsed.Hits.Hits[0].Source.StorageKey, true, nil
}

// UpsertDocument replaces every chunk previously indexed under
// storageKey with the given chunks. The delete happens before the
// bulk insert, matching the pipeline's idempotent delete-then-insert
// contract: a crash between the two leaves the document temporarily
// absent from search rather than duplicated.
func (ix *Index) UpsertDocument(ctx context.Context, storageKey, fileName, fileType string, hash domain.ContentFingerprint, chunks []domain.Chunk) error {
	if _, err := ix.DeleteByStorageKey(ctx, storageKey); err != nil {
		return fmt.Errorf("upsert: clearing previous chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	indexedAt := time.Now().UTC().Format(time.RFC3339)

	var buf bytes.Buffer
	for _, c := range chunks {
		docID := storageKey + "#" + strconv.Itoa(c.ChunkIndex)
		meta := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, ix.name, docID)
		buf.WriteString(meta)
		buf.WriteByte('\n')

		doc := chunkDocument{
			StorageKey:  storageKey,
			FileName:    fileName,
			FileType:    fileType,
			Content:     c.Text,
			ContentHash: string(hash),
			Vector:      c.Vector,
			ChunkIndex:  c.ChunkIndex,
			ChunkCount:  len(chunks),
			IndexedAt:   indexedAt,
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal chunk %d: %w", c.ChunkIndex, err)
		}
		buf.Write(payload)
		buf.WriteByte('\n')
	}

	resp, err := esapi.BulkRequest{Body: bytes.NewReader(buf.Bytes())}.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("bulk index: %s", resp.String())
	}

	var bulkResp bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if bulkResp.Errors {
		return fmt.Errorf("%w: bulk index reported item errors for %s", domain.ErrIndexUnavailable, storageKey)
	}

	return nil
}

// DeleteByStorageKey removes every chunk indexed under storageKey.
func (ix *Index) DeleteByStorageKey(ctx context.Context, storageKey string) (int, error) {
	query := fmt.Sprintf(`{"query":{"term":{"storage_key":%q}}}`, storageKey)

	resp, err := esapi.DeleteByQueryRequest{
		Index: []string{ix.name},
		Body:  strings.NewReader(query),
	}.Do(ctx, ix.client)
	if err != nil {
		return 0, fmt.Errorf("delete by storage key: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return 0, nil
	}
	if resp.IsError() {
		return 0, fmt.Errorf("delete by storage key: %s", resp.String())
	}

	var parsed deleteByQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode delete response: %w", err)
	}

	return parsed.Deleted, nil
}

// ListStorageKeys pages through every distinct storage key currently
// indexed, for the reconciliation sweep's GC pass. cursor is an
// opaque composite-aggregation "after" key; pass "" to start.
func (ix *Index) ListStorageKeys(ctx context.Context, cursor string) ([]string, string, error) {
	const pageSize = 1000

	afterClause := ""
	if cursor != "" {
		afterClause = fmt.Sprintf(`,"after":{"key":%q}`, cursor)
	}

	query := fmt.Sprintf(`{
		"size": 0,
		"aggs": {
			"keys": {
				"composite": {
					"size": %d,
					"sources": [{"key": {"terms": {"field": "storage_key"}}}]%s
				}
			}
		}
	}`, pageSize, afterClause)

	resp, err := esapi.SearchRequest{
		Index: []string{ix.name},
		Body:  strings.NewReader(query),
	}.Do(ctx, ix.client)
	if err != nil {
		return nil, "", fmt.Errorf("list storage keys: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, "", fmt.Errorf("list storage keys: %s", resp.String())
	}

	var parsed compositeAggResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, "", fmt.Errorf("decode aggregation response: %w", err)
	}

	keys := make([]string, 0, len(parsed.Aggregations.Keys.Buckets))
	for _, b := range parsed.Aggregations.Keys.Buckets {
		keys = append(keys, b.Key.Key)
	}

	nextCursor := ""
	if parsed.Aggregations.Keys.AfterKey.Key != "" {
		nextCursor = parsed.Aggregations.Keys.AfterKey.Key
	}

	return keys, nextCursor, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source chunkDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
}

type deleteByQueryResponse struct {
	Deleted int `json:"deleted"`
}

type compositeAggResponse struct {
	Aggregations struct {
		Keys struct {
			Buckets []struct {
				Key struct {
					Key string `json:"key"`
				} `json:"key"`
			} `json:"buckets"`
			AfterKey struct {
				Key string `json:"key"`
			} `json:"after_key"`
		} `json:"keys"`
	} `json:"aggregations"`
}
