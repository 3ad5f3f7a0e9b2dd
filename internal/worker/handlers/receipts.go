package handlers

import (
	"context"

	"github.com/webitel/im-delivery-service/internal/domain/model"
	"github.com/webitel/im-delivery-service/internal/worker"
)

// ReceiptStore is the slice of the persistent store RH needs.
type ReceiptStore interface {
	UpsertReceiptsMany(ctx context.Context, receipts []model.Receipt) error
}

// Receipts upserts a batch of receipts under a single store transaction.
// The store's merge rule (§5.1) makes replay of any subset safe, so on
// commit success every entry id acks; on failure the store error is
// returned so the worker's circuit breaker sees it, and none do.
func Receipts(store ReceiptStore) worker.Handler[model.Receipt] {
	return func(ctx context.Context, entries []worker.Entry[model.Receipt]) ([]string, error) {
		receipts := make([]model.Receipt, len(entries))
		ids := make([]string, len(entries))
		for i, e := range entries {
			receipts[i] = e.Payload
			ids[i] = e.ID
		}

		if err := store.UpsertReceiptsMany(ctx, receipts); err != nil {
			return nil, err
		}
		return ids, nil
	}
}
