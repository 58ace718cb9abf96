package coordinator

import (
	"context"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driving"
)

// handleRegistration tells the reducer how many WorkEvents a given
// queue receipt handle carries, before any of those events reach a
// lane. The reducer deletes the message once that many completions
// for the handle have arrived: an Ack/Nack split re-architected around
// an explicit Receive()/Delete(handle) queue port, into "delete once
// every event in the batch is terminal".
type handleRegistration struct {
	handle any
	count  int
}

// runReducer is the sole owner of both the running CoordinatorStats
// and the per-handle pending counts. Every mutation arrives over a
// channel; nothing here is touched by another goroutine.
func (c *Coordinator) runReducer(ctx context.Context) {
	var stats driving.CoordinatorStats
	pending := make(map[any]int)

	for {
		select {
		case reg := <-c.handleRegistrations:
			pending[reg.handle] += reg.count

		case comp, ok := <-c.completions:
			if !ok {
				// Keep answering Stats with the final totals after Run
				// has returned.
				final := stats
				go func() {
					for resp := range c.statsReq {
						resp <- final
					}
				}()
				return
			}
			tally(&stats, comp.result.Outcome)

			handle := comp.event.QueueHandle
			if handle == nil {
				continue
			}
			pending[handle]--
			if pending[handle] <= 0 {
				delete(pending, handle)
				if c.cfg.Queue != nil {
					if err := c.cfg.Queue.Delete(ctx, handle); err != nil {
						c.logger.Warn("failed to delete queue message", "error", err)
					}
				}
			}

		case resp := <-c.statsReq:
			resp <- stats
		}
	}
}

func tally(stats *driving.CoordinatorStats, outcome domain.Outcome) {
	switch outcome {
	case domain.OutcomeIndexed:
		stats.Indexed++
	case domain.OutcomeDuplicate:
		stats.Duplicate++
	case domain.OutcomeUnchanged:
		stats.Unchanged++
	case domain.OutcomeDeleted:
		stats.Deleted++
	case domain.OutcomeEmpty:
		stats.Empty++
	case domain.OutcomeFailed:
		stats.Failed++
	}
}
