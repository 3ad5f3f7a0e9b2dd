package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/im-delivery-service/internal/queue"
)

// fakeQueue is an in-memory queue.Queue good enough to drive a Worker's
// pending-then-new read loop without Redis.
type fakeQueue struct {
	mu      sync.Mutex
	entries []queue.Entry
	pending []queue.Entry
	acked   []string
}

func (q *fakeQueue) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := string(rune('a' + len(q.entries)))
	q.entries = append(q.entries, queue.Entry{ID: id, Payload: payload})
	return id, nil
}

func (q *fakeQueue) EnsureGroup(ctx context.Context, topic, group string) error { return nil }

func (q *fakeQueue) Read(ctx context.Context, topic, group, consumer string, count int, block int64, mode queue.ReadMode) ([]queue.Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if mode == queue.ReadPending {
		// Pending entries stay pending until acked, as in a Redis PEL.
		return append([]queue.Entry(nil), q.pending...), nil
	}

	out := q.entries
	q.entries = nil
	q.pending = append(q.pending, out...)
	return out, nil
}

func (q *fakeQueue) Ack(ctx context.Context, topic, group string, ids []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	acked := map[string]bool{}
	for _, id := range ids {
		acked[id] = true
	}
	kept := q.pending[:0]
	for _, e := range q.pending {
		if !acked[e.ID] {
			kept = append(kept, e)
		}
	}
	q.pending = kept
	q.acked = append(q.acked, ids...)
	return nil
}

type payload struct {
	Text string `json:"text"`
}

func TestWorker_PoisonPillIsAckedAndDropped(t *testing.T) {
	q := &fakeQueue{entries: []queue.Entry{{ID: "p1", Payload: []byte("not json")}}}

	var handled []Entry[payload]
	w := New[payload](q, "topic", "group", "c1", func(ctx context.Context, entries []Entry[payload]) ([]string, error) {
		handled = append(handled, entries...)
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		return ids, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	assert.Empty(t, handled, "a malformed entry must never reach the handler")
	assert.Contains(t, q.acked, "p1", "a poison entry is acked regardless, to avoid head-of-line blocking")
}

func TestWorker_PartialAckRedeliversRemainder(t *testing.T) {
	encode := func(text string) []byte {
		b, _ := json.Marshal(payload{Text: text})
		return b
	}

	q := &fakeQueue{entries: []queue.Entry{
		{ID: "e1", Payload: encode("one")},
		{ID: "e2", Payload: encode("two")},
	}}

	var calls int
	w := New[payload](q, "topic", "group", "c1", func(ctx context.Context, entries []Entry[payload]) ([]string, error) {
		calls++
		if calls == 1 {
			// Only ack the first entry on the first pass.
			return []string{entries[0].ID}, nil
		}
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		return ids, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 1200*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	assert.Contains(t, q.acked, "e1")
	assert.Contains(t, q.acked, "e2")
	assert.GreaterOrEqual(t, calls, 2, "the unacked entry must be redelivered on the next pending-pass")
}

func TestWorker_EmptyHandlerResultLeavesEntriesPending(t *testing.T) {
	encode := func(text string) []byte {
		b, _ := json.Marshal(payload{Text: text})
		return b
	}
	q := &fakeQueue{entries: []queue.Entry{{ID: "e1", Payload: encode("one")}}}

	w := New[payload](q, "topic", "group", "c1", func(ctx context.Context, entries []Entry[payload]) ([]string, error) {
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	require.Empty(t, q.acked)
}

func TestWorker_CircuitBreakerTripsOnRepeatedHandlerError(t *testing.T) {
	encode := func(text string) []byte {
		b, _ := json.Marshal(payload{Text: text})
		return b
	}
	q := &fakeQueue{entries: []queue.Entry{{ID: "e1", Payload: encode("one")}}}

	var calls int32
	w := New[payload](q, "topic", "group", "c1", func(ctx context.Context, entries []Entry[payload]) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("store down")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return w.Breaker.State() == gobreaker.StateOpen
	}, 5*time.Second, 20*time.Millisecond, "repeated handler failures must trip the breaker")

	tripped := atomic.LoadInt32(&calls)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, tripped, atomic.LoadInt32(&calls), "once open, the breaker must short-circuit further handler invocations")
}
