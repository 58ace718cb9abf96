// Package coordinator implements the Event Coordinator: it drives the
// Ingestion Pipeline from three independent sources (full scan, queue
// subscription, periodic reconciliation), routes WorkEvents to
// per-storage_key worker lanes so same-key events stay in submission
// order, and aggregates outcomes into a single stats record.
//
// Modeled on a pool-of-goroutines drain loop feeding a lock-gated
// periodic sweep, generalized from "one task queue" to "three
// WorkEvent sources feeding one lane router".
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driving"
)

var _ driving.Coordinator = (*Coordinator)(nil)

// Config configures a Coordinator.
type Config struct {
	Pipeline driving.Pipeline
	Queue    driven.EventQueue
	Store    driven.ObjectStore
	Index    driven.SearchIndex
	Lock     driven.DistributedLock
	Logger   *slog.Logger

	// NumLanes is how many per-key worker lanes to route events into.
	// Cross-key parallelism is bounded by this number.
	NumLanes int

	// LaneBuffer bounds each lane's channel, providing backpressure
	// against a source that produces faster than the pipeline drains.
	LaneBuffer int

	// ScanOnStartup runs one full-bucket scan before entering
	// queue-subscription mode.
	ScanOnStartup bool
	ScanPrefixes  []string

	// ReconcileInterval is how often the GC sweep runs. Zero selects the
	// 6h default; a negative value, or a nil Lock, disables
	// reconciliation entirely.
	ReconcileInterval time.Duration

	// ReconcileReingestDrifted additionally re-runs a full scan on
	// every reconciliation tick, so CREATE events are re-emitted for
	// keys whose queue notification was lost. Off by default: the
	// spec's reconciliation source is GC-only (see runReconcile in
	// reconcile.go for the reasoning).
	ReconcileReingestDrifted bool

	// QueueWaitTimeout bounds each long-poll call to Queue.Receive.
	QueueWaitTimeout time.Duration
	// QueueBatchSize is the max messages requested per long-poll.
	QueueBatchSize int

	// DrainTimeout is how long Run waits for in-flight events to reach
	// a terminal outcome after ctx is cancelled before logging a
	// warning. Process receives the same cancelled ctx, so in-flight
	// HTTP calls abort; Run still blocks past this deadline until every
	// lane worker actually returns, since nothing may send on
	// completions once it is closed.
	DrainTimeout time.Duration
}

// completion pairs a processed WorkEvent with its Result so the
// reducer goroutine can both tally stats and decide whether the
// queue message carrying the event is now fully resolved.
type completion struct {
	event  domain.WorkEvent
	result domain.Result
}

// Coordinator wires the three WorkEvent sources into the lane router
// and owns the aggregation reducer: a single goroutine holds the
// running CoordinatorStats and the per-queue-handle completion
// counters, so no counter is ever touched by more than one goroutine —
// an explicit aggregation record rather than shared mutable state.
type Coordinator struct {
	cfg    Config
	logger *slog.Logger

	lanes               []chan domain.WorkEvent
	completions         chan completion
	handleRegistrations chan handleRegistration
	statsReq            chan chan driving.CoordinatorStats

	wg sync.WaitGroup
}

// New creates a Coordinator from cfg, applying defaults for anything
// left zero-valued.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.NumLanes <= 0 {
		cfg.NumLanes = 4
	}
	if cfg.LaneBuffer <= 0 {
		cfg.LaneBuffer = 64
	}
	if cfg.QueueWaitTimeout <= 0 {
		cfg.QueueWaitTimeout = 20 * time.Second
	}
	if cfg.QueueBatchSize <= 0 {
		cfg.QueueBatchSize = 10
	}
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = 6 * time.Hour
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 30 * time.Second
	}

	lanes := make([]chan domain.WorkEvent, cfg.NumLanes)
	for i := range lanes {
		lanes[i] = make(chan domain.WorkEvent, cfg.LaneBuffer)
	}

	return &Coordinator{
		cfg:                 cfg,
		logger:              logger,
		lanes:               lanes,
		completions:         make(chan completion, cfg.LaneBuffer*cfg.NumLanes),
		// Unbuffered: runQueue's send returns only once the reducer has
		// recorded the count, before any of the message's events reach a lane.
		handleRegistrations: make(chan handleRegistration),
		statsReq:            make(chan chan driving.CoordinatorStats),
	}
}

// Run starts the lane workers, the reducer, and every configured
// source, and blocks until ctx is cancelled and every lane worker has
// returned. If the lanes have not drained within DrainTimeout, a
// warning is logged and Run keeps waiting for them.
func (c *Coordinator) Run(ctx context.Context) error {
	reducerDone := make(chan struct{})
	go func() {
		defer close(reducerDone)
		c.runReducer(ctx)
	}()

	for i, lane := range c.lanes {
		c.wg.Add(1)
		go c.runLane(ctx, i, lane)
	}

	var sourceWG sync.WaitGroup

	if c.cfg.ScanOnStartup {
		sourceWG.Add(1)
		go func() {
			defer sourceWG.Done()
			c.runScan(ctx)
		}()
	}

	if c.cfg.Queue != nil {
		sourceWG.Add(1)
		go func() {
			defer sourceWG.Done()
			c.runQueue(ctx)
		}()
	}

	if c.cfg.ReconcileInterval > 0 && c.cfg.Lock != nil {
		sourceWG.Add(1)
		go func() {
			defer sourceWG.Done()
			c.runReconcile(ctx)
		}()
	}

	<-ctx.Done()
	c.logger.Info("coordinator shutting down, draining in-flight events", "drain_timeout", c.cfg.DrainTimeout)

	sourceWG.Wait()
	for _, lane := range c.lanes {
		close(lane)
	}

	drained := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(c.cfg.DrainTimeout):
		c.logger.Warn("drain deadline exceeded, waiting for in-flight events to abort")
		<-drained
	}

	close(c.completions)
	<-reducerDone

	return nil
}

// submit routes event to its lane. Blocks if the lane's buffer is
// full, which is the system's only backpressure mechanism.
func (c *Coordinator) submit(event domain.WorkEvent) {
	lane := laneFor(event.StorageKey, len(c.lanes))
	c.lanes[lane] <- event
}

func (c *Coordinator) runLane(ctx context.Context, id int, lane chan domain.WorkEvent) {
	defer c.wg.Done()
	logger := c.logger.With("lane", id)

	for event := range lane {
		result := c.cfg.Pipeline.Process(ctx, event)
		logger.Debug("lane processed event", "storage_key", event.StorageKey, "outcome", result.Outcome)
		c.completions <- completion{event: event, result: result}
	}
}

// Stats returns a snapshot of the running totals, queried from the
// reducer goroutine so the read is never racing a concurrent write.
func (c *Coordinator) Stats() driving.CoordinatorStats {
	resp := make(chan driving.CoordinatorStats, 1)
	c.statsReq <- resp
	return <-resp
}
