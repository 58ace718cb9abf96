package domain

import "time"

// StorageObject describes one object in the external object store. The
// core never mutates it.
type StorageObject struct {
	StorageKey   string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// RawDocument is an in-memory snapshot of a StorageObject, held between
// fetch and extraction and discarded afterward.
type RawDocument struct {
	StorageKey  string
	Bytes       []byte
	ContentType string
	Size        int64
}

// ExtractionMethod identifies which Content Extractor variant produced
// an ExtractedDocument.
type ExtractionMethod string

const (
	ExtractionMethodPDFOCR      ExtractionMethod = "pdf_ocr"
	ExtractionMethodImageOCR    ExtractionMethod = "image_ocr"
	ExtractionMethodDOCXText    ExtractionMethod = "docx_text"
	ExtractionMethodSpreadsheet ExtractionMethod = "spreadsheet_text"
	ExtractionMethodCSVText     ExtractionMethod = "csv_text"
	ExtractionMethodPlainText   ExtractionMethod = "plain_text"
)

// ExtractedDocument is the result of running the Content Extractor
// against a RawDocument. It is consumed by the chunker and the hash
// step, then discarded once indexing completes.
type ExtractedDocument struct {
	StorageKey       string
	CleanedText      string
	ExtractionMethod ExtractionMethod
	PageCount        int
	ExtractionErrors []string
}

// ContentFingerprint is the 256-bit digest of an ExtractedDocument's
// cleaned text, encoded as UTF-8. It is the dedup key: two documents
// with byte-identical cleaned text have identical fingerprints.
type ContentFingerprint string

// Chunk is one contiguous token-window of cleaned text, carrying its
// embedding vector once the Embedder has run.
type Chunk struct {
	ChunkIndex int
	Text       string
	Vector     []float32
}

// IndexedRecord is one entry in the search index. One RawDocument
// yields one IndexedRecord per chunk.
type IndexedRecord struct {
	RecordID    string
	StorageKey  string
	FileName    string
	FileType    string
	Content     string
	ContentHash string
	Vector      []float32
	ChunkIndex  int
	ChunkCount  int
	IndexedAt   time.Time
}

// EventKind distinguishes the two WorkEvent variants the Event
// Coordinator can emit.
type EventKind string

const (
	EventKindCreate EventKind = "CREATE"
	EventKindDelete EventKind = "DELETE"
)

// EventOrigin records which source produced a WorkEvent.
type EventOrigin string

const (
	EventOriginScan      EventOrigin = "SCAN"
	EventOriginQueue     EventOrigin = "QUEUE"
	EventOriginReconcile EventOrigin = "RECONCILE"
)

// WorkEvent is the unit passed from the Event Coordinator to the
// Ingestion Pipeline.
type WorkEvent struct {
	Kind       EventKind
	StorageKey string
	Origin     EventOrigin
	EnqueuedAt time.Time

	// QueueHandle is opaque receipt-handle data the queue source
	// needs to later Delete the originating message. Nil for events
	// from SCAN or RECONCILE.
	QueueHandle any
}

// Outcome is the terminal state of processing one WorkEvent.
type Outcome string

const (
	OutcomeIndexed   Outcome = "indexed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeDeleted   Outcome = "deleted"
	OutcomeEmpty     Outcome = "empty"
	OutcomeFailed    Outcome = "failed"
)

// PipelineTiming is the value-typed per-phase timing record the
// pipeline assembles for one WorkEvent. Each phase contributes its own
// elapsed duration; nothing here is shared mutable state.
type PipelineTiming struct {
	FetchMS   int64
	ExtractMS int64
	HashMS    int64
	DedupMS   int64
	ChunkMS   int64
	EmbedMS   int64
	IndexMS   int64
	TotalMS   int64
}

// Result is what the pipeline returns for one WorkEvent: the terminal
// outcome, a human-readable reason when the outcome is failed or
// duplicate, and the phase timings gathered along the way.
type Result struct {
	StorageKey string
	Outcome    Outcome
	Reason     string
	Timing     PipelineTiming
}
