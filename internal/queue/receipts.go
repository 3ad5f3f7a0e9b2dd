package queue

import (
	"context"
	"encoding/json"

	"github.com/webitel/im-delivery-service/internal/domain/model"
)

// ReceiptPublisher publishes a single-field receipt event onto the
// receipts topic. It is the adapter the session registry (SR) uses to
// satisfy spec.md §4.7's "record a synthetic delivery receipt onto
// DQ.receipts" side effect, and the one the write path uses for its
// fetch-messages delivery receipts, reactions and read receipts. The
// session endpoint transports publish no receipts of their own.
type ReceiptPublisher struct {
	Queue Queue
}

func NewReceiptPublisher(q Queue) *ReceiptPublisher {
	return &ReceiptPublisher{Queue: q}
}

func (p *ReceiptPublisher) PublishDeliveryReceipt(ctx context.Context, messageID string, user model.Principal) error {
	now := nowMillis()
	return p.publish(ctx, model.Receipt{Message: messageID, User: user, DeliveredAt: &now})
}

func (p *ReceiptPublisher) PublishReadReceipt(ctx context.Context, messageID string, user model.Principal) error {
	now := nowMillis()
	return p.publish(ctx, model.Receipt{Message: messageID, User: user, ReadAt: &now})
}

func (p *ReceiptPublisher) PublishReaction(ctx context.Context, messageID string, user model.Principal, reaction int32) error {
	return p.publish(ctx, model.Receipt{Message: messageID, User: user, Reaction: &reaction})
}

func (p *ReceiptPublisher) publish(ctx context.Context, r model.Receipt) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = p.Queue.Publish(ctx, TopicReceipts, payload)
	return err
}
