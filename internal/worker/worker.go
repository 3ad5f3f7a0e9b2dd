// Package worker implements the generic batch worker (BW): drains a
// durable-queue topic, deserializes payloads, invokes a domain handler
// in batches, and acknowledges on success.
//
// Grounded on original_source's libworkers.rs::stream_worker control
// flow: ensure group, read pending-then-new, poison-pill ack-and-drop,
// handler-returns-ack-subset, sleep and loop.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/webitel/im-delivery-service/internal/queue"
)

const (
	batchMax    = 100
	blockMillis = 5000
	idleSleep   = 500 * time.Millisecond
)

// Handler processes a batch of deserialized entries and returns the
// queue entry ids it successfully handled; entries not returned stay
// pending and are re-read on the worker's next pending-pass. A non-nil
// error means the whole batch failed (e.g. the store is unreachable)
// and is what trips the worker's circuit breaker.
type Handler[T any] func(ctx context.Context, entries []Entry[T]) ([]string, error)

// Entry pairs a durable-queue entry id with its deserialized payload.
type Entry[T any] struct {
	ID      string
	Payload T
}

// Worker drains Topic under Group as Consumer, invoking Handle on each
// batch it reads.
type Worker[T any] struct {
	Queue    queue.Queue
	Topic    string
	Group    string
	Consumer string
	Handle   Handler[T]
	Breaker  *gobreaker.CircuitBreaker

	// onMalformed is called for every payload that fails JSON
	// unmarshaling before the handler runs; it exists only to make the
	// poison-pill path testable without asserting on log output.
	onMalformed func(id string, err error)
}

func New[T any](q queue.Queue, topic, group, consumer string, handle Handler[T]) *Worker[T] {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        topic + "/" + group,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
	})
	return &Worker[T]{Queue: q, Topic: topic, Group: group, Consumer: consumer, Handle: handle, Breaker: breaker}
}

// Run blocks until ctx is cancelled, draining the worker's topic.
func (w *Worker[T]) Run(ctx context.Context) error {
	if err := w.Queue.EnsureGroup(ctx, w.Topic, w.Group); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entries, err := w.Queue.Read(ctx, w.Topic, w.Group, w.Consumer, batchMax, blockMillis, queue.ReadPending)
		if err != nil {
			slog.Error("worker: read pending", "topic", w.Topic, "error", err)
			sleep(ctx, time.Second)
			continue
		}

		if len(entries) == 0 {
			entries, err = w.Queue.Read(ctx, w.Topic, w.Group, w.Consumer, batchMax, blockMillis, queue.ReadNew)
			if err != nil {
				slog.Error("worker: read new", "topic", w.Topic, "error", err)
				sleep(ctx, time.Second)
				continue
			}
		}

		if len(entries) == 0 {
			sleep(ctx, idleSleep)
			continue
		}

		w.processBatch(ctx, entries)
		sleep(ctx, idleSleep)
	}
}

func (w *Worker[T]) processBatch(ctx context.Context, raw []queue.Entry) {
	var (
		batch     []Entry[T]
		ackAlways []string // poison entries: dropped and acked regardless of handler outcome
	)

	for _, e := range raw {
		var payload T
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			slog.Warn("worker: malformed payload, dropping", "topic", w.Topic, "id", e.ID, "error", err)
			if w.onMalformed != nil {
				w.onMalformed(e.ID, err)
			}
			ackAlways = append(ackAlways, e.ID)
			continue
		}
		batch = append(batch, Entry[T]{ID: e.ID, Payload: payload})
	}

	ackIDs := ackAlways
	if len(batch) > 0 {
		result, err := w.Breaker.Execute(func() (any, error) {
			return w.Handle(ctx, batch)
		})
		if err != nil {
			// Either the handler itself failed (store error, counted as a
			// breaker failure) or the breaker is open and short-circuited
			// the call: either way nothing from this batch acks, so it
			// all redelivers on the next pending-pass.
			slog.Error("worker: handler unavailable", "topic", w.Topic, "error", err)
		} else if ids, ok := result.([]string); ok {
			ackIDs = append(ackIDs, ids...)
		}
	}

	if len(ackIDs) == 0 {
		return
	}
	if err := w.Queue.Ack(ctx, w.Topic, w.Group, ackIDs); err != nil {
		slog.Error("worker: ack failed, will retry on next pending-pass", "topic", w.Topic, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
