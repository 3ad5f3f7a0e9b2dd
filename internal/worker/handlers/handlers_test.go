package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/im-delivery-service/internal/domain/model"
	"github.com/webitel/im-delivery-service/internal/worker"
)

type fakeMessageStore struct {
	inserted []model.Message
	failErr  error
}

func (s *fakeMessageStore) InsertMessagesMany(ctx context.Context, messages []model.Message) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.inserted = append(s.inserted, messages...)
	return nil
}

type fakeReceiptStore struct {
	upserted []model.Receipt
	failErr  error
}

func (s *fakeReceiptStore) UpsertReceiptsMany(ctx context.Context, receipts []model.Receipt) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.upserted = append(s.upserted, receipts...)
	return nil
}

func TestMessages_AcksAllOnSuccess(t *testing.T) {
	store := &fakeMessageStore{}
	h := Messages(store)

	ids, err := h(context.Background(), []worker.Entry[model.Message]{
		{ID: "1", Payload: model.Message{ID: "m1", Text: "hi"}},
		{ID: "2", Payload: model.Message{ID: "m2", Text: "there"}},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)
	require.Len(t, store.inserted, 2)
	assert.Equal(t, "m1", store.inserted[0].ID)
}

func TestMessages_StoreFailureReturnsErrorAndNoAcks(t *testing.T) {
	store := &fakeMessageStore{failErr: errors.New("db down")}
	h := Messages(store)

	ids, err := h(context.Background(), []worker.Entry[model.Message]{
		{ID: "1", Payload: model.Message{ID: "m1"}},
	})

	assert.ErrorIs(t, err, store.failErr, "the store error must surface so the worker's breaker sees it")
	assert.Nil(t, ids, "a failed batch insert must leave every entry pending for redelivery")
}

func TestReceipts_AcksAllOnSuccess(t *testing.T) {
	store := &fakeReceiptStore{}
	h := Receipts(store)

	ids, err := h(context.Background(), []worker.Entry[model.Receipt]{
		{ID: "1", Payload: model.Receipt{Message: "m1", User: "alice"}},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids)
	require.Len(t, store.upserted, 1)
}

func TestReceipts_StoreFailureReturnsErrorAndNoAcks(t *testing.T) {
	store := &fakeReceiptStore{failErr: errors.New("db down")}
	h := Receipts(store)

	ids, err := h(context.Background(), []worker.Entry[model.Receipt]{
		{ID: "1", Payload: model.Receipt{Message: "m1", User: "alice"}},
	})

	assert.ErrorIs(t, err, store.failErr)
	assert.Nil(t, ids)
}
