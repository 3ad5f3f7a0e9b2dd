// Package redisstream is the reference durable-queue (DQ) implementation
// backing internal/queue.Queue with Redis streams and consumer groups.
//
// Grounded on original_source's libworkers.rs (stream_worker,
// ensure_group) and redis_cfg.rs (ensure_group/ensure_receipts_group):
// XADD for publish, XGROUP CREATE ... MKSTREAM for idempotent group
// creation, XREADGROUP pending-then-new for read, XACK for ack.
package redisstream

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/webitel/im-delivery-service/internal/queue"
)

const payloadField = "payload"

var _ queue.Queue = (*Stream)(nil)

type Stream struct {
	client *redis.Client
}

func New(client *redis.Client) *Stream {
	return &Stream{client: client}
}

func (s *Stream) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{payloadField: payload},
	}).Result()
	if err != nil {
		return "", err
	}
	return id, nil
}

// EnsureGroup idempotently creates group on topic. BUSYGROUP (the group
// already exists) is not an error — the second caller must succeed
// silently, per the DQ contract.
func (s *Stream) EnsureGroup(ctx context.Context, topic, group string) error {
	err := s.client.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (s *Stream) Read(ctx context.Context, topic, group, consumer string, count int, block int64, mode queue.ReadMode) ([]queue.Entry, error) {
	id := ">"
	if mode == queue.ReadPending {
		id = "0"
	}

	res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{topic, id},
		Count:    int64(count),
		Block:    msDuration(block),
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entries []queue.Entry
	for _, stream := range res {
		for _, msg := range stream.Messages {
			raw, ok := msg.Values[payloadField]
			if !ok {
				continue
			}
			payload, ok := toBytes(raw)
			if !ok {
				continue
			}
			entries = append(entries, queue.Entry{ID: msg.ID, Payload: payload})
		}
	}
	return entries, nil
}

func (s *Stream) Ack(ctx context.Context, topic, group string, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	return s.client.XAck(ctx, topic, group, entryIDs...).Err()
}

func toBytes(v any) ([]byte, bool) {
	switch t := v.(type) {
	case string:
		return []byte(t), true
	case []byte:
		return t, true
	default:
		return nil, false
	}
}
