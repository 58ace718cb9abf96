package coordinator

import (
	"context"
	"errors"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// runQueue long-polls the event queue and routes each batch's events
// into lanes. The handle is registered with the reducer before any of
// its events are submitted, so a completion can never race ahead of
// the count it is being compared against.
func (c *Coordinator) runQueue(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		messages, err := c.cfg.Queue.Receive(ctx, c.cfg.QueueBatchSize, c.cfg.QueueWaitTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Error("queue: receive failed", "error", err)
			continue
		}

		for _, msg := range messages {
			if len(msg.Events) == 0 {
				if err := c.cfg.Queue.Delete(ctx, msg.Handle); err != nil {
					c.logger.Warn("failed to delete empty queue message", "error", err)
				}
				continue
			}

			c.handleRegistrations <- handleRegistration{handle: msg.Handle, count: len(msg.Events)}

			for _, event := range msg.Events {
				event.Origin = domain.EventOriginQueue
				event.QueueHandle = msg.Handle
				c.submit(event)
			}
		}
	}
}
