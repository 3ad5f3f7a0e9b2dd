// Package ws implements the WebSocket session endpoint (SE): a duplex
// session keyed by the authenticated principal, with heartbeat-based
// liveness and inbound "private" frame relay.
//
// Grounded on original_source's ws.rs (WsSession's heartbeat interval,
// ClientMessage parsing, Close handling) and the teacher's
// internal/handler/ws/delivery.go for the gorilla/websocket pump-loop
// shape (upgrade, Recv-loop, defer Unsubscribe).
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/webitel/im-delivery-service/internal/domain/event"
	"github.com/webitel/im-delivery-service/internal/domain/model"
	"github.com/webitel/im-delivery-service/internal/registry"
)

const (
	heartbeatInterval = 5 * time.Second
	heartbeatTimeout  = 10 * time.Second
)

// clientFrame is the only inbound shape the session endpoint interprets;
// any other "type" value is accepted and ignored, per spec.md §4.8.
type clientFrame struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Content string `json:"content"`
}

type Handler struct {
	hub      registry.Hubber
	upgrader websocket.Upgrader
}

func NewHandler(hub registry.Hubber) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Principal extracts the authenticated principal from the request
// context. Authentication itself is out of scope (spec.md §1): the core
// receives an already-validated principal on every request.
func Principal(r *http.Request) model.Principal {
	if p, ok := r.Context().Value(principalKey{}).(model.Principal); ok {
		return p
	}
	return ""
}

type principalKey struct{}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal := Principal(r)
	if principal == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	sink := registry.NewConnector(ctx, principal, 256)
	h.hub.Register(sink)
	defer h.hub.Unregister(principal, sink.GetID())

	go h.readPump(ctx, conn, principal)
	h.writePump(conn, sink)
}

// readPump handles inbound frames: ping/pong refresh the heartbeat
// clock, "private"-typed text frames relay through the hub, close
// frames end the session. A client that sends no ping or pong for
// heartbeatTimeout fails the read deadline here; readPump then closes
// the connection, so writePump's next write fails and the session ends.
func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, principal model.Principal) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(heartbeatTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(heartbeatTimeout))
		return nil
	})
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(heartbeatTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Type != "private" {
			continue
		}
		h.hub.Private(ctx, principal, model.Principal(frame.To), frame.Content)
	}
}

func (h *Handler) writePump(conn *websocket.Conn, sink registry.Connector) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sink.Recv():
			if !ok {
				return
			}
			if err := h.writeEvent(conn, ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeEvent(conn *websocket.Conn, ev event.Eventer) error {
	var data []byte
	if cached := ev.GetCached(); cached != nil {
		if b, ok := cached.([]byte); ok {
			data = b
		}
	}
	if data == nil {
		encoded, err := json.Marshal(ev.GetPayload())
		if err != nil {
			return err
		}
		data = encoded
		ev.SetCached(data)
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
