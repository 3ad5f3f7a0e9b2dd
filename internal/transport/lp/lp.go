// Package lp implements the long-poll session endpoint (SE): a
// temporary, per-request registry attachment for clients that cannot
// hold a socket open. It is the second of the two session transports
// SPEC_FULL.md adds alongside the WebSocket transport.
//
// Grounded on the teacher's internal/handler/lp/delivery.go for the
// subscribe/drain/timeout shape; principal extraction follows the same
// request-context convention as the WebSocket transport rather than the
// teacher's URL-param placeholder, since this core treats the principal
// as pre-validated on every request (spec.md §1).
package lp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/webitel/im-delivery-service/internal/domain/event"
	"github.com/webitel/im-delivery-service/internal/registry"
	"github.com/webitel/im-delivery-service/internal/transport/ws"
)

const (
	pollTimeout  = 30 * time.Second
	maxDrainSize = 15
)

type Handler struct {
	hub registry.Hubber
}

func NewHandler(hub registry.Hubber) *Handler {
	return &Handler{hub: hub}
}

// Poll subscribes the caller's principal for the lifetime of this
// request, waits for the first event (or a timeout), then drains a
// bounded batch of any further events already queued so one round trip
// can carry more than a single message.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	if principal == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	sink := registry.NewConnector(ctx, principal, maxDrainSize)
	h.hub.Register(sink)
	defer h.hub.Unregister(principal, sink.GetID())

	var events []event.Eventer

	select {
	case <-ctx.Done():
		return

	case <-time.After(pollTimeout):
		w.WriteHeader(http.StatusNoContent)
		return

	case ev, ok := <-sink.Recv():
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		events = append(events, ev)

	drain:
		for range maxDrainSize - 1 {
			select {
			case next, ok := <-sink.Recv():
				if !ok {
					break drain
				}
				events = append(events, next)
			default:
				break drain
			}
		}
	}

	data, err := marshalEvents(events)
	if err != nil {
		http.Error(w, "marshal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// frame and response mirror the batching envelope the WebSocket
// transport's clients already expect, so long-poll callers can share a
// decoder.
type frame struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Payload any    `json:"payload"`
}

type response struct {
	Events []frame `json:"events"`
}

func marshalEvents(events []event.Eventer) ([]byte, error) {
	out := response{Events: make([]frame, 0, len(events))}
	for _, ev := range events {
		out.Events = append(out.Events, frame{
			Type:    kindLabel(ev.GetKind()),
			ID:      ev.GetID(),
			Payload: ev.GetPayload(),
		})
	}
	return json.Marshal(out)
}

func kindLabel(k event.Kind) string {
	switch k {
	case event.Connected:
		return "system_connected"
	case event.MessageCreated:
		return "message_created"
	case event.ReceiptUpdated:
		return "receipt_updated"
	default:
		return "unknown"
	}
}
