package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

type fakeStore struct {
	participants map[string][]model.Participant
	mailboxes    map[model.Principal]*model.Mailbox
	inserted     []model.Mailbox
	lookups      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		participants: map[string][]model.Participant{},
		mailboxes:    map[model.Principal]*model.Mailbox{},
	}
}

func (f *fakeStore) RetrieveParticipants(ctx context.Context, conversation string, limit, offset int) ([]model.Participant, error) {
	f.lookups++
	return f.participants[conversation], nil
}

func (f *fakeStore) GetMailboxByOwner(ctx context.Context, owner model.Principal) (*model.Mailbox, error) {
	return f.mailboxes[owner], nil
}

func (f *fakeStore) InsertMailbox(ctx context.Context, mbox model.Mailbox) error {
	f.inserted = append(f.inserted, mbox)
	f.mailboxes[mbox.Owner] = &mbox
	return nil
}

func TestParticipantCache_IsParticipant(t *testing.T) {
	store := newFakeStore()
	store.participants["C"] = []model.Participant{
		{Conversation: "C", Principal: "alice"},
		{Conversation: "C", Principal: "bob"},
	}

	pc := NewParticipantCache(store, time.Minute)

	assert.True(t, pc.IsParticipant(context.Background(), "C", "alice"))
	assert.False(t, pc.IsParticipant(context.Background(), "C", "carol"))
	assert.Equal(t, 1, store.lookups, "repeated IsParticipant calls should hit the cached set")
}

func TestMailboxCache_ResolveDefault_CreatesOnMiss(t *testing.T) {
	store := newFakeStore()
	mc := NewMailboxCache(store, time.Minute)

	id, err := mc.ResolveDefault(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "mbox-bob", id)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, model.MailboxPeerInbox, store.inserted[0].Kind)
}

func TestMailboxCache_ResolveDefault_ReusesExisting(t *testing.T) {
	store := newFakeStore()
	store.mailboxes["bob"] = &model.Mailbox{ID: "existing-box", Owner: "bob", Kind: model.MailboxPeerInbox}

	mc := NewMailboxCache(store, time.Minute)

	id, err := mc.ResolveDefault(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "existing-box", id)
	assert.Empty(t, store.inserted, "an already-existing mailbox must not be recreated")
}
