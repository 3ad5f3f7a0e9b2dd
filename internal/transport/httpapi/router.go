// Package httpapi wires the write path's operations onto the HTTP
// surface spec.md §6 lists, plus the two session transports
// (WebSocket, long-poll) that SPEC_FULL.md adds for clients that
// implement it.
//
// Grounded on the teacher's chi-based mux convention (the only router
// the example pack uses across its HTTP-facing services) and
// original_source's handlers.rs for the route-to-operation mapping.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/webitel/im-delivery-service/internal/transport/lp"
	"github.com/webitel/im-delivery-service/internal/transport/ws"
	"github.com/webitel/im-delivery-service/internal/writepath"
)

func NewRouter(wp *writepath.WritePath, wsHandler *ws.Handler, lpHandler *lp.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(ws.PrincipalMiddleware)

	h := &handlers{wp: wp}

	r.Post("/conversations", h.createConversation)
	r.Get("/conversations", h.listConversations)
	r.Get("/conversations/{name}", h.getConversation)
	r.Post("/conversations/{name}/messages", h.postConversationMessage)
	r.Get("/conversations/{name}/messages", h.getConversationMessages)
	r.Post("/inbox/{peer}/messages", h.postInboxMessage)
	r.Get("/inbox/messages", h.getInboxMessages)
	r.Get("/messages/{id}/receipts", h.getReceipts)
	r.Get("/messages/{id}/react/{reaction}", h.react)
	r.Get("/messages/{id}/mark_as_read", h.markAsRead)

	r.Get("/ws/", wsHandler.ServeHTTP)
	r.Get("/session/poll", lpHandler.Poll)

	return r
}
