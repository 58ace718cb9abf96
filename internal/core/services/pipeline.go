package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/archivist-labs/archivist-core/internal/chunk"
	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driving"
	"github.com/archivist-labs/archivist-core/internal/extract"
)

var _ driving.Pipeline = (*Pipeline)(nil)

// Pipeline implements the per-document state machine: fetch, extract,
// hash, dedup-check, chunk, embed, index. Generalized from a
// connector-sync processChange/processAddOrUpdate/processDelete split
// into "document store + search engine" to "search index only" —
// there is no document store here, persisted state lives entirely in
// the object store, queue, and index.
type Pipeline struct {
	Store    driven.ObjectStore
	Index    driven.SearchIndex
	Embedder *chunk.Embedder
	OCR      driven.OCRClient
	Logger   *slog.Logger
}

// NewPipeline creates a Pipeline. ocr may be nil; image files then fail
// extraction with domain.ErrOCRUnavailable.
func NewPipeline(store driven.ObjectStore, index driven.SearchIndex, embedder *chunk.Embedder, ocr driven.OCRClient, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Store: store, Index: index, Embedder: embedder, OCR: ocr, Logger: logger}
}

// Process runs one WorkEvent to a terminal outcome. A failure on one
// document never propagates as an error the coordinator must react to
// beyond logging: the returned Result always carries a concrete
// outcome, never a Go error.
func (p *Pipeline) Process(ctx context.Context, event domain.WorkEvent) domain.Result {
	start := time.Now()

	var result domain.Result
	switch event.Kind {
	case domain.EventKindDelete:
		result = p.processDelete(ctx, event)
	case domain.EventKindCreate:
		result = p.processCreate(ctx, event)
	default:
		result = domain.Result{
			StorageKey: event.StorageKey,
			Outcome:    domain.OutcomeFailed,
			Reason:     fmt.Sprintf("unknown event kind %q", event.Kind),
		}
	}
	result.Timing.TotalMS = time.Since(start).Milliseconds()

	p.log(event, result)
	return result
}

func (p *Pipeline) processDelete(ctx context.Context, event domain.WorkEvent) domain.Result {
	t0 := time.Now()
	_, err := p.Index.DeleteByStorageKey(ctx, event.StorageKey)
	timing := domain.PipelineTiming{IndexMS: time.Since(t0).Milliseconds()}

	if err != nil {
		return domain.Result{StorageKey: event.StorageKey, Outcome: domain.OutcomeFailed, Reason: err.Error(), Timing: timing}
	}
	// N=0 is still success: delete is idempotent.
	return domain.Result{StorageKey: event.StorageKey, Outcome: domain.OutcomeDeleted, Timing: timing}
}

func (p *Pipeline) processCreate(ctx context.Context, event domain.WorkEvent) domain.Result {
	var timing domain.PipelineTiming
	key := event.StorageKey

	t0 := time.Now()
	_, err := p.Store.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The object vanished between the event firing and us
			// looking at it: treat exactly like a DELETE.
			return p.processDelete(ctx, domain.WorkEvent{StorageKey: key, Kind: domain.EventKindDelete, Origin: event.Origin})
		}
		return domain.Result{StorageKey: key, Outcome: domain.OutcomeFailed, Reason: err.Error()}
	}

	raw, err := p.Store.Get(ctx, key)
	timing.FetchMS = time.Since(t0).Milliseconds()
	if err != nil {
		return domain.Result{StorageKey: key, Outcome: domain.OutcomeFailed, Reason: err.Error(), Timing: timing}
	}

	t0 = time.Now()
	extracted, err := extract.Extract(ctx, raw, extract.Deps{OCR: p.OCR, Logger: p.Logger})
	timing.ExtractMS = time.Since(t0).Milliseconds()
	if err != nil {
		return domain.Result{StorageKey: key, Outcome: domain.OutcomeFailed, Reason: err.Error(), Timing: timing}
	}

	if extracted.CleanedText == "" {
		return domain.Result{StorageKey: key, Outcome: domain.OutcomeEmpty, Reason: "empty extraction", Timing: timing}
	}

	t0 = time.Now()
	fingerprint := fingerprintOf(extracted.CleanedText)
	timing.HashMS = time.Since(t0).Milliseconds()

	t0 = time.Now()
	existingKey, found, err := p.Index.LookupByFingerprint(ctx, fingerprint)
	timing.DedupMS = time.Since(t0).Milliseconds()
	if err != nil {
		return domain.Result{StorageKey: key, Outcome: domain.OutcomeFailed, Reason: err.Error(), Timing: timing}
	}
	if found {
		if existingKey == key {
			return domain.Result{StorageKey: key, Outcome: domain.OutcomeUnchanged, Timing: timing}
		}
		return domain.Result{
			StorageKey: key,
			Outcome:    domain.OutcomeDuplicate,
			Reason:     fmt.Sprintf("duplicate of %s", existingKey),
			Timing:     timing,
		}
	}

	t0 = time.Now()
	chunks := chunk.Window(extracted.CleanedText)
	timing.ChunkMS = time.Since(t0).Milliseconds()

	t0 = time.Now()
	chunks, err = p.Embedder.Embed(ctx, chunks)
	timing.EmbedMS = time.Since(t0).Milliseconds()
	if err != nil {
		return domain.Result{StorageKey: key, Outcome: domain.OutcomeFailed, Reason: err.Error(), Timing: timing}
	}

	t0 = time.Now()
	fileName := path.Base(key)
	err = p.Index.UpsertDocument(ctx, key, fileName, string(extracted.ExtractionMethod), fingerprint, chunks)
	timing.IndexMS = time.Since(t0).Milliseconds()
	if err != nil {
		return domain.Result{StorageKey: key, Outcome: domain.OutcomeFailed, Reason: err.Error(), Timing: timing}
	}

	return domain.Result{StorageKey: key, Outcome: domain.OutcomeIndexed, Timing: timing}
}

func fingerprintOf(cleanedText string) domain.ContentFingerprint {
	sum := sha256.Sum256([]byte(cleanedText))
	return domain.ContentFingerprint(hex.EncodeToString(sum[:]))
}

func (p *Pipeline) log(event domain.WorkEvent, result domain.Result) {
	attrs := []any{
		"storage_key", result.StorageKey,
		"origin", string(event.Origin),
		"outcome", string(result.Outcome),
		"fetch_ms", result.Timing.FetchMS,
		"extract_ms", result.Timing.ExtractMS,
		"hash_ms", result.Timing.HashMS,
		"dedup_ms", result.Timing.DedupMS,
		"chunk_ms", result.Timing.ChunkMS,
		"embed_ms", result.Timing.EmbedMS,
		"index_ms", result.Timing.IndexMS,
		"total_ms", result.Timing.TotalMS,
	}
	if result.Reason != "" {
		attrs = append(attrs, "reason", result.Reason)
	}

	switch result.Outcome {
	case domain.OutcomeFailed:
		p.Logger.Error("document processed", attrs...)
	case domain.OutcomeEmpty:
		p.Logger.Warn("document processed", attrs...)
	default:
		p.Logger.Info("document processed", attrs...)
	}
}
