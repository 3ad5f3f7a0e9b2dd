package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-delivery-service/internal/domain/event"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

// ReceiptPublisher is the narrow slice of the durable queue the registry
// needs: recording a synthetic delivery receipt the moment a payload is
// handed to a live sink (§4.7 of the write-up this package implements).
type ReceiptPublisher interface {
	PublishDeliveryReceipt(ctx context.Context, messageID string, user model.Principal) error
}

// DeliverMessage is the payload handed to Hub.Deliver: a message envelope
// routed to one specific recipient.
type DeliverMessage struct {
	To      model.Principal
	ID      string
	Payload any
}

// Hubber is the external API of the session registry.
type Hubber interface {
	Broadcast(ev event.Eventer) bool
	Deliver(ctx context.Context, msg DeliverMessage) bool
	Private(ctx context.Context, from, to model.Principal, content string) bool
	Register(conn Connector)
	Unregister(principal model.Principal, connID uuid.UUID)
	IsConnected(principal model.Principal) bool
	Shutdown()
}

// Hub implements Hubber with a virtual-cell-per-principal design: one
// actor goroutine owns delivery for a principal, so connect/disconnect
// and delivery never interleave into an inconsistent session set.
type Hub struct {
	cells sync.Map // model.Principal -> Celler

	receipts ReceiptPublisher

	evictionInterval time.Duration
	idleTimeout      time.Duration
	mailboxSize      int
	stopCh           chan struct{}
}

func NewHub(receipts ReceiptPublisher, opts ...Option) *Hub {
	h := &Hub{
		receipts:         receipts,
		evictionInterval: 1 * time.Minute,
		idleTimeout:      5 * time.Minute,
		mailboxSize:      1024,
		stopCh:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	go h.runEvictor()
	return h
}

func (h *Hub) IsConnected(principal model.Principal) bool {
	_, ok := h.cells.Load(principal)
	return ok
}

func (h *Hub) Broadcast(ev event.Eventer) bool {
	if val, ok := h.cells.Load(ev.GetUserID()); ok {
		if cell, ok := val.(Celler); ok {
			return cell.Push(ev)
		}
	}
	return false
}

// Deliver routes a message envelope to its recipient's sink if one
// exists, and records a synthetic delivery receipt; offline recipients
// are dropped silently and reconcile on their next fetch.
func (h *Hub) Deliver(ctx context.Context, msg DeliverMessage) bool {
	val, ok := h.cells.Load(msg.To)
	if !ok {
		return false
	}
	cell, ok := val.(Celler)
	if !ok {
		return false
	}

	ev := event.NewMessageEventFromPayload(msg.ID, msg.To, msg.Payload)
	if !cell.Push(ev) {
		return false
	}

	if h.receipts != nil {
		if err := h.receipts.PublishDeliveryReceipt(ctx, msg.ID, msg.To); err != nil {
			slog.Error("registry: publish delivery receipt", "error", err, "message", msg.ID, "user", msg.To)
		}
	}
	return true
}

// Private relays a best-effort peer-to-peer frame, used by the session
// endpoint's inbound "private" client frame.
func (h *Hub) Private(_ context.Context, from, to model.Principal, content string) bool {
	val, ok := h.cells.Load(to)
	if !ok {
		return false
	}
	cell, ok := val.(Celler)
	if !ok {
		return false
	}

	frame, err := json.Marshal(struct {
		From    model.Principal `json:"from"`
		Content string          `json:"content"`
	}{From: from, Content: content})
	if err != nil {
		return false
	}

	return cell.Push(event.NewPrivateEvent(to, frame))
}

// Register idempotently attaches conn to the principal's cell, creating
// the cell on first connect, and pushes a Connected handshake event to
// the newly attached session.
func (h *Hub) Register(conn Connector) {
	principal := conn.GetUserID()
	val, _ := h.cells.LoadOrStore(principal, NewCell(principal, h.mailboxSize))

	if cell, ok := val.(Celler); ok {
		cell.Attach(conn)
	}

	h.Broadcast(event.NewConnectedEvent(principal, time.Now().UnixMilli()))
}

// Unregister detaches conn from its cell. The cell itself is reclaimed
// asynchronously by the evictor once it has no sessions and has been
// idle past idleTimeout.
func (h *Hub) Unregister(principal model.Principal, connID uuid.UUID) {
	if val, ok := h.cells.Load(principal); ok {
		if cell, ok := val.(Celler); ok {
			cell.Detach(connID)
		}
	}
}

func (h *Hub) runEvictor() {
	ticker := time.NewTicker(h.evictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.performEviction()
		}
	}
}

func (h *Hub) performEviction() {
	reaped := 0
	h.cells.Range(func(key, value any) bool {
		if cell, ok := value.(Celler); ok {
			if cell.IsIdle(h.idleTimeout) {
				cell.Stop()
				h.cells.Delete(key)
				reaped++
			}
		}
		return true
	})

	if reaped > 0 {
		slog.Info("registry: reclaimed idle cells", "count", reaped)
	}
}

func (h *Hub) Shutdown() {
	close(h.stopCh)
	h.cells.Range(func(key, value any) bool {
		if cell, ok := value.(Celler); ok {
			cell.Stop()
		}
		return true
	})
}
