// Package handlers implements the message handler (MH) and receipt
// handler (RH): the domain logic a Worker invokes per batch.
//
// Grounded on original_source's workers.rs (IMHandler, ReceiptHandler).
package handlers

import (
	"context"

	"github.com/webitel/im-delivery-service/internal/domain/model"
	"github.com/webitel/im-delivery-service/internal/worker"
)

// MessageStore is the slice of the persistent store MH needs.
type MessageStore interface {
	InsertMessagesMany(ctx context.Context, messages []model.Message) error
}

// Messages batch-inserts envelopes via store. On success every entry id
// is returned for ack; on failure the store error is returned so the
// worker's circuit breaker sees it, and the whole batch redelivers,
// matching spec.md §4.5's "does not retry internally".
func Messages(store MessageStore) worker.Handler[model.Message] {
	return func(ctx context.Context, entries []worker.Entry[model.Message]) ([]string, error) {
		messages := make([]model.Message, len(entries))
		ids := make([]string, len(entries))
		for i, e := range entries {
			messages[i] = e.Payload
			ids[i] = e.ID
		}

		if err := store.InsertMessagesMany(ctx, messages); err != nil {
			return nil, err
		}
		return ids, nil
	}
}
