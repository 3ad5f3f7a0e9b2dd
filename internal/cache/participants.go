package cache

import (
	"context"
	"time"

	"github.com/webitel/im-delivery-service/internal/domain/model"
)

// Store is the narrow slice of the persistent store the cache falls
// back to on a miss.
type Store interface {
	RetrieveParticipants(ctx context.Context, conversation string, limit, offset int) ([]model.Participant, error)
	GetMailboxByOwner(ctx context.Context, owner model.Principal) (*model.Mailbox, error)
	InsertMailbox(ctx context.Context, mbox model.Mailbox) error
}

// ParticipantCache maps conversation name -> participant set (cap 1000
// entries per spec.md §4.2).
type ParticipantCache struct {
	ttl   *TTLCache[string, []model.Participant]
	store Store
}

func NewParticipantCache(store Store, ttl time.Duration) *ParticipantCache {
	return &ParticipantCache{ttl: New[string, []model.Participant](1000, ttl), store: store}
}

func (c *ParticipantCache) Get(ctx context.Context, conversation string) ([]model.Participant, error) {
	return c.ttl.Get(ctx, conversation, func(ctx context.Context) ([]model.Participant, error) {
		return c.store.RetrieveParticipants(ctx, conversation, 1000, 0)
	})
}

func (c *ParticipantCache) IsParticipant(ctx context.Context, conversation string, principal model.Principal) bool {
	participants, err := c.Get(ctx, conversation)
	if err != nil {
		return false
	}
	for _, p := range participants {
		if p.Principal == principal {
			return true
		}
	}
	return false
}

// MailboxCache maps principal -> default mailbox id (cap 1000), creating
// a default mailbox on miss if none exists.
type MailboxCache struct {
	ttl   *TTLCache[model.Principal, string]
	store Store
}

func NewMailboxCache(store Store, ttl time.Duration) *MailboxCache {
	return &MailboxCache{ttl: New[model.Principal, string](1000, ttl), store: store}
}

func (c *MailboxCache) ResolveDefault(ctx context.Context, owner model.Principal) (string, error) {
	return c.ttl.Get(ctx, owner, func(ctx context.Context) (string, error) {
		mbox, err := c.store.GetMailboxByOwner(ctx, owner)
		if err == nil && mbox != nil {
			return mbox.ID, nil
		}

		created := model.Mailbox{ID: "mbox-" + string(owner), Owner: owner, Kind: model.MailboxPeerInbox}
		if err := c.store.InsertMailbox(ctx, created); err != nil {
			return "", err
		}
		return created.ID, nil
	})
}
