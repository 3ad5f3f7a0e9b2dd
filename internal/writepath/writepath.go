// Package writepath implements the write path (WP): the per-request
// glue that validates participation via the participant cache, stamps
// the envelope, enqueues to the durable queue, and dispatches to the
// session registry for best-effort online delivery.
//
// Grounded on original_source's handlers.rs, route for route.
package writepath

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/webitel/im-delivery-service/internal/cache"
	"github.com/webitel/im-delivery-service/internal/domain/model"
	"github.com/webitel/im-delivery-service/internal/queue"
	"github.com/webitel/im-delivery-service/internal/registry"
)

var ErrForbidden = errors.New("writepath: principal is not a participant")

// Store is the slice of the persistent store WP uses directly: reads,
// plus the conversation-creation write. Message and receipt writes go
// through the durable queue instead, per spec.md §4.9.
type Store interface {
	InsertConversationWithParticipants(ctx context.Context, conv model.Conversation, participants []model.Principal) error
	ListConversations(ctx context.Context, principal model.Principal) ([]model.Conversation, error)
	GetConversation(ctx context.Context, name string) (*model.Conversation, error)
	RetrieveMessages(ctx context.Context, mbox string, filter model.MessageFilter) ([]model.Message, error)
	RetrieveReceipts(ctx context.Context, messageID string) ([]model.Receipt, error)
	IsParticipant(ctx context.Context, conversation string, principal model.Principal) bool
	IsSender(ctx context.Context, messageID string, principal model.Principal) bool
}

type WritePath struct {
	store        Store
	participants *cache.ParticipantCache
	mailboxes    *cache.MailboxCache
	queue        queue.Queue
	hub          registry.Hubber
	receipts     *queue.ReceiptPublisher
}

func New(store Store, participants *cache.ParticipantCache, mailboxes *cache.MailboxCache, q queue.Queue, hub registry.Hubber, receipts *queue.ReceiptPublisher) *WritePath {
	return &WritePath{store: store, participants: participants, mailboxes: mailboxes, queue: q, hub: hub, receipts: receipts}
}

// CreateConversation creates the conversation (admin = creator) and
// inserts the creator plus every other named participant atomically.
func (w *WritePath) CreateConversation(ctx context.Context, admin model.Principal, title string, participants []model.Principal) (*model.Conversation, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: participants list is empty", errValidation)
	}

	all := dedupeWithCreator(admin, participants)

	conv := model.Conversation{Name: uuid.New().String(), Title: title, Admin: admin}
	if err := w.store.InsertConversationWithParticipants(ctx, conv, all); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (w *WritePath) ListConversations(ctx context.Context, principal model.Principal) ([]model.Conversation, error) {
	return w.store.ListConversations(ctx, principal)
}

func (w *WritePath) GetConversation(ctx context.Context, principal model.Principal, name string) (*model.Conversation, error) {
	if !w.participants.IsParticipant(ctx, name, principal) {
		return nil, ErrForbidden
	}
	conv, err := w.store.GetConversation(ctx, name)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// PostToConversation implements spec.md §4.9's "Post to conversation".
func (w *WritePath) PostToConversation(ctx context.Context, principal model.Principal, conversation, text string, replyTo *string) error {
	participants, err := w.participants.Get(ctx, conversation)
	if err != nil {
		return fmt.Errorf("%w: participant lookup failed", errStoreTransient)
	}

	if !containsPrincipal(participants, principal) {
		return ErrForbidden
	}

	envelope := stampEnvelope(principal, conversation, text, replyTo)
	if err := w.publishMessage(ctx, envelope); err != nil {
		return fmt.Errorf("%w: %v", errQueueUnavailable, err)
	}

	recipients := make([]model.Principal, 0, len(participants))
	for _, p := range participants {
		if p.Principal != principal {
			recipients = append(recipients, p.Principal)
		}
	}

	go w.fanOut(envelope, recipients)
	return nil
}

// PostToPeerInbox implements spec.md §4.9's "Post to peer inbox".
func (w *WritePath) PostToPeerInbox(ctx context.Context, principal model.Principal, peer model.Principal, text string, replyTo *string) error {
	mbox, err := w.mailboxes.ResolveDefault(ctx, peer)
	if err != nil {
		return fmt.Errorf("%w: mailbox resolve failed", errStoreTransient)
	}

	envelope := stampEnvelope(principal, mbox, text, replyTo)
	if err := w.publishMessage(ctx, envelope); err != nil {
		return fmt.Errorf("%w: %v", errQueueUnavailable, err)
	}

	go w.fanOut(envelope, []model.Principal{peer})
	return nil
}

// FetchConversationMessages requires participation and records a
// delivery receipt for every message returned.
func (w *WritePath) FetchConversationMessages(ctx context.Context, principal model.Principal, conversation string, filter model.MessageFilter) ([]model.Message, error) {
	if !w.store.IsParticipant(ctx, conversation, principal) {
		return nil, ErrForbidden
	}
	return w.fetchAndAckDelivery(ctx, principal, conversation, filter)
}

// FetchInboxMessages resolves the caller's own default mailbox. Per
// spec.md §6, a mailbox-resolve failure returns an empty list rather
// than an error.
func (w *WritePath) FetchInboxMessages(ctx context.Context, principal model.Principal, filter model.MessageFilter) []model.Message {
	mbox, err := w.mailboxes.ResolveDefault(ctx, principal)
	if err != nil {
		return []model.Message{}
	}
	messages, err := w.fetchAndAckDelivery(ctx, principal, mbox, filter)
	if err != nil {
		return []model.Message{}
	}
	return messages
}

func (w *WritePath) fetchAndAckDelivery(ctx context.Context, principal model.Principal, mbox string, filter model.MessageFilter) ([]model.Message, error) {
	messages, err := w.store.RetrieveMessages(ctx, mbox, filter)
	if err != nil {
		return nil, err
	}

	for _, m := range messages {
		if err := w.receipts.PublishDeliveryReceipt(ctx, m.ID, principal); err != nil {
			continue // best-effort; a missed receipt self-heals on next fetch
		}
	}
	return messages, nil
}

func (w *WritePath) React(ctx context.Context, principal model.Principal, messageID string, reaction int32) error {
	return w.receipts.PublishReaction(ctx, messageID, principal, reaction)
}

func (w *WritePath) MarkAsRead(ctx context.Context, principal model.Principal, messageID string) error {
	return w.receipts.PublishReadReceipt(ctx, messageID, principal)
}

func (w *WritePath) FetchReceipts(ctx context.Context, principal model.Principal, messageID string) ([]model.Receipt, error) {
	if !w.store.IsSender(ctx, messageID, principal) {
		return nil, ErrNotFound
	}
	return w.store.RetrieveReceipts(ctx, messageID)
}

func (w *WritePath) publishMessage(ctx context.Context, m model.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.queue.Publish(ctx, queue.TopicMessages, payload)
	return err
}

// fanOut is the best-effort, asynchronous dispatch to online recipients
// (spec.md §4.9 step 5: "does not block the response").
func (w *WritePath) fanOut(m model.Message, recipients []model.Principal) {
	ctx := context.Background()
	for _, to := range recipients {
		w.hub.Deliver(ctx, registry.DeliverMessage{To: to, ID: m.ID, Payload: m})
	}
}
