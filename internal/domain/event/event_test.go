package event

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

func TestMessageEvent_CarriesMessageFields(t *testing.T) {
	msg := &model.Message{ID: "m1", Created: 42}
	ev := NewMessageEvent(msg, "bob")

	assert.Equal(t, MessageCreated, ev.GetKind())
	assert.Equal(t, model.Principal("bob"), ev.GetUserID())
	assert.Equal(t, int64(42), ev.GetOccurredAt())
	assert.Same(t, msg, ev.GetPayload())
}

func TestMessageEvent_CachePersistsAcrossCalls(t *testing.T) {
	ev := NewMessageEvent(&model.Message{}, "bob")
	assert.Nil(t, ev.GetCached())

	ev.SetCached([]byte(`{"id":"1"}`))
	assert.Equal(t, []byte(`{"id":"1"}`), ev.GetCached())
}

func TestNewMessageEventFromPayload_ParsesValidUUID(t *testing.T) {
	id := uuid.New()
	ev := NewMessageEventFromPayload(id.String(), "bob", "payload")

	assert.Equal(t, id.String(), ev.GetID())
	assert.Equal(t, "payload", ev.GetPayload())
}

func TestNewMessageEventFromPayload_FallsBackOnInvalidID(t *testing.T) {
	ev := NewMessageEventFromPayload("not-a-uuid", "bob", "payload")

	_, err := uuid.Parse(ev.GetID())
	assert.NoError(t, err, "an invalid message id must still yield some valid event id, not propagate the parse error")
}

func TestNewConnectedEvent_IsSystemKindWithHandshakePayload(t *testing.T) {
	ev := NewConnectedEvent("alice", 100)

	assert.Equal(t, Connected, ev.GetKind())
	payload, err := json.Marshal(ev.GetPayload())
	assert.NoError(t, err)
	assert.JSONEq(t, `{"type":"connected","occurred_at":100}`, string(payload))
	assert.Equal(t, int64(100), ev.GetOccurredAt())
}
