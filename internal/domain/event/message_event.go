package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

var _ Eventer = (*MessageEvent)(nil)

// MessageEvent wraps a persisted-bound message envelope for the "who
// gets it locally" fan-out step. UserID is the physical recipient of
// this instance, which may differ from Message.Source (the logical
// author) whenever the event is addressed to another participant.
type MessageEvent struct {
	ID      uuid.UUID
	Message *model.Message
	UserID  model.Principal
	cached  any
}

func NewMessageEvent(msg *model.Message, to model.Principal) *MessageEvent {
	return &MessageEvent{ID: uuid.New(), Message: msg, UserID: to}
}

func (e *MessageEvent) GetID() string              { return e.ID.String() }
func (e *MessageEvent) GetPayload() any            { return e.Message }
func (e *MessageEvent) GetUserID() model.Principal { return e.UserID }
func (e *MessageEvent) GetOccurredAt() int64       { return e.Message.Created }
func (e *MessageEvent) GetKind() Kind              { return MessageCreated }
func (e *MessageEvent) GetPriority() Priority      { return PriorityHigh }
func (e *MessageEvent) GetCached() any             { return e.cached }
func (e *MessageEvent) SetCached(v any)            { e.cached = v }

var _ Eventer = (*OutboundEvent)(nil)

// OutboundEvent carries an arbitrary already-serialized-or-serializable
// payload to a single recipient. The session registry uses this for
// Hub.Deliver, where the payload is whatever the write path already
// built (typically the JSON-wire envelope), so it need not be a
// *model.Message.
type OutboundEvent struct {
	ID         uuid.UUID
	UserID     model.Principal
	Kind       Kind
	OccurredAt int64
	Payload    any
	cached     any
}

// NewMessageEventFromPayload builds the fan-out event the registry sends
// when Hub.Deliver routes a message to a connected recipient.
func NewMessageEventFromPayload(messageID string, to model.Principal, payload any) *OutboundEvent {
	id, err := uuid.Parse(messageID)
	if err != nil {
		id = uuid.New()
	}
	return &OutboundEvent{ID: id, UserID: to, Kind: MessageCreated, OccurredAt: time.Now().UnixMilli(), Payload: payload}
}

// NewPrivateEvent builds the event for a relayed "private" session frame.
// frame is already-encoded JSON; it is carried as json.RawMessage so a
// later json.Marshal of the payload re-emits it verbatim instead of
// base64-encoding the raw bytes.
func NewPrivateEvent(to model.Principal, frame []byte) *OutboundEvent {
	return &OutboundEvent{ID: uuid.New(), UserID: to, Kind: MessageCreated, OccurredAt: time.Now().UnixMilli(), Payload: json.RawMessage(frame)}
}

func (e *OutboundEvent) GetID() string              { return e.ID.String() }
func (e *OutboundEvent) GetPayload() any            { return e.Payload }
func (e *OutboundEvent) GetUserID() model.Principal { return e.UserID }
func (e *OutboundEvent) GetOccurredAt() int64       { return e.OccurredAt }
func (e *OutboundEvent) GetKind() Kind              { return e.Kind }
func (e *OutboundEvent) GetPriority() Priority      { return PriorityHigh }
func (e *OutboundEvent) GetCached() any             { return e.cached }
func (e *OutboundEvent) SetCached(v any)            { e.cached = v }

var _ Eventer = (*ConnectedEvent)(nil)

// ConnectedEvent is the handshake event a session receives right after
// registering with the hub.
type ConnectedEvent struct {
	ID         uuid.UUID
	UserID     model.Principal
	OccurredAt int64
	cached     any
}

func NewConnectedEvent(userID model.Principal, occurredAt int64) *ConnectedEvent {
	return &ConnectedEvent{ID: uuid.New(), UserID: userID, OccurredAt: occurredAt}
}

func (e *ConnectedEvent) GetID() string { return e.ID.String() }
func (e *ConnectedEvent) GetPayload() any {
	return struct {
		Type       string `json:"type"`
		OccurredAt int64  `json:"occurred_at"`
	}{Type: "connected", OccurredAt: e.OccurredAt}
}
func (e *ConnectedEvent) GetUserID() model.Principal { return e.UserID }
func (e *ConnectedEvent) GetOccurredAt() int64       { return e.OccurredAt }
func (e *ConnectedEvent) GetKind() Kind              { return Connected }
func (e *ConnectedEvent) GetPriority() Priority      { return PriorityNormal }
func (e *ConnectedEvent) GetCached() any             { return e.cached }
func (e *ConnectedEvent) SetCached(v any)            { e.cached = v }
