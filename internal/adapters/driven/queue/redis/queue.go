// Package redis implements driven.EventQueue over Redis Streams: a
// consumer group gives at-least-once delivery and automatic redelivery
// of messages abandoned by a crashed worker, which is the only
// reliability guarantee the coordinator's queue source depends on.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

const (
	eventStream = "archivist:events"
	eventGroup  = "archivist:coordinators"

	consumerPrefix = "coordinator-"

	// claimTimeout bounds how long a message may sit unacknowledged
	// before another consumer is allowed to claim and redeliver it.
	claimTimeout = 5 * time.Minute
)

var _ driven.EventQueue = (*Queue)(nil)

// Queue implements driven.EventQueue using a single Redis stream and
// consumer group. Each stream entry carries a JSON-encoded batch of
// domain.WorkEvent (one object-store notification may describe several
// keys at once).
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a Queue and ensures the consumer group exists.
// consumerName should be unique per process (hostname + PID is enough).
func NewQueue(client *redis.Client, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = fmt.Sprintf("%s%d", consumerPrefix, time.Now().UnixNano())
	}

	q := &Queue{client: client, consumerName: consumerName}

	ctx := context.Background()
	if err := q.client.XGroupCreateMkStream(ctx, eventStream, eventGroup, "0").Err(); err != nil && !isGroupExistsError(err) {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return q, nil
}

type eventBatch struct {
	Events []domain.WorkEvent `json:"events"`
}

// Enqueue publishes a batch of events as a single stream entry. Not
// part of the driven.EventQueue port: the queue is normally populated
// by the object store's own notification pipeline, but tooling and
// tests need a way to seed it directly.
func (q *Queue) Enqueue(ctx context.Context, events ...domain.WorkEvent) error {
	if len(events) == 0 {
		return nil
	}

	payload, err := json.Marshal(eventBatch{Events: events})
	if err != nil {
		return fmt.Errorf("marshal event batch: %w", err)
	}

	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: eventStream,
		Values: map[string]interface{}{"events": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue event batch: %w", err)
	}

	return nil
}

// Receive long-polls the stream, first attempting to reclaim any
// message idle longer than claimTimeout, then reading fresh entries.
func (q *Queue) Receive(ctx context.Context, max int, wait time.Duration) ([]driven.QueueMessage, error) {
	if max <= 0 {
		max = 1
	}

	if reclaimed, err := q.reclaimAbandoned(ctx, max); err != nil {
		return nil, err
	} else if len(reclaimed) > 0 {
		return reclaimed, nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    eventGroup,
		Consumer: q.consumerName,
		Streams:  []string{eventStream, ">"},
		Count:    int64(max),
		Block:    wait,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, fmt.Errorf("read event stream: %w", err)
	}

	if len(streams) == 0 {
		return nil, nil
	}

	return messagesFrom(streams[0].Messages, q.ackAndDrop(ctx))
}

// reclaimAbandoned claims messages that have been pending longer than
// claimTimeout, on the assumption the consumer that received them has
// died without acknowledging.
func (q *Queue) reclaimAbandoned(ctx context.Context, max int) ([]driven.QueueMessage, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: eventStream,
		Group:  eventGroup,
		Start:  "-",
		End:    "+",
		Count:  int64(max),
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		if isStreamNotExistsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	ids := make([]string, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
	}

	claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   eventStream,
		Group:    eventGroup,
		Consumer: q.consumerName,
		MinIdle:  claimTimeout,
		Messages: ids,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("claim abandoned events: %w", err)
	}

	return messagesFrom(claimed, q.ackAndDrop(ctx))
}

// ackAndDrop returns the drop callback messagesFrom uses for entries
// that fail to decode: they are acknowledged so they are never
// redelivered, since retrying a corrupt payload can never succeed.
func (q *Queue) ackAndDrop(ctx context.Context) func(id string) {
	return func(id string) {
		q.client.XAck(ctx, eventStream, eventGroup, id)
		q.client.XDel(ctx, eventStream, id)
	}
}

func messagesFrom(raw []redis.XMessage, drop func(id string)) ([]driven.QueueMessage, error) {
	out := make([]driven.QueueMessage, 0, len(raw))
	for _, msg := range raw {
		field, ok := msg.Values["events"]
		if !ok {
			drop(msg.ID)
			continue
		}
		payload, ok := field.(string)
		if !ok {
			drop(msg.ID)
			continue
		}

		var batch eventBatch
		if err := json.Unmarshal([]byte(payload), &batch); err != nil {
			drop(msg.ID)
			continue
		}

		out = append(out, driven.QueueMessage{Handle: msg.ID, Events: batch.Events})
	}
	return out, nil
}

// Delete acknowledges and removes a message by its stream ID.
func (q *Queue) Delete(ctx context.Context, handle any) error {
	id, ok := handle.(string)
	if !ok {
		return fmt.Errorf("invalid queue handle type %T", handle)
	}

	pipe := q.client.Pipeline()
	pipe.XAck(ctx, eventStream, eventGroup, id)
	pipe.XDel(ctx, eventStream, id)
	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close does not close the shared redis client; callers own its
// lifecycle since the same client typically backs the distributed
// lock as well.
func (q *Queue) Close() error {
	return nil
}

func isGroupExistsError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

func isStreamNotExistsError(err error) bool {
	return err != nil && (err.Error() == "ERR no such key" ||
		err.Error() == "ERR The XINFO subcommand requires the key to exist")
}
