// Package event defines the payloads that flow from the durable queue and
// the write path into the session registry, and from there out to a
// connected session.
package event

import "github.com/webitel/im-delivery-service/internal/domain/model"

type Kind int16

const (
	Connected      Kind = iota + 1 // [SYSTEM]
	MessageCreated                 // [BUSINESS]
	ReceiptUpdated                 // [BUSINESS]
)

type Priority int32

const (
	PriorityLow    Priority = 10
	PriorityNormal Priority = 20
	PriorityHigh   Priority = 30
)

// Eventer defines the contract for all data packets flowing through the Hub.
type Eventer interface {
	GetID() string
	GetKind() Kind
	GetUserID() model.Principal
	GetPriority() Priority
	GetOccurredAt() int64
	GetPayload() any
	GetCached() any
	SetCached(any)
}
