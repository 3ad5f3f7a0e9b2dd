package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/webitel/im-delivery-service/internal/domain/model"
	"github.com/webitel/im-delivery-service/internal/transport/ws"
	"github.com/webitel/im-delivery-service/internal/writepath"
)

type handlers struct {
	wp *writepath.WritePath
}

type createConversationBody struct {
	Participants []model.Principal `json:"participants"`
	Title        string            `json:"title,omitempty"`
}

func (h *handlers) createConversation(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	var body createConversationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	conv, err := h.wp.CreateConversation(r.Context(), principal, body.Title, body.Participants)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *handlers) listConversations(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	convs, err := h.wp.ListConversations(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *handlers) getConversation(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	name := chi.URLParam(r, "name")

	conv, err := h.wp.GetConversation(r.Context(), principal, name)
	if err != nil {
		writeError(w, err)
		return
	}
	if conv == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type postMessageBody struct {
	Text    string  `json:"text"`
	ReplyTo *string `json:"reply_to,omitempty"`
}

func (h *handlers) postConversationMessage(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	name := chi.URLParam(r, "name")

	var body postMessageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	if err := h.wp.PostToConversation(r.Context(), principal, name, body.Text, body.ReplyTo); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) postInboxMessage(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	peer := model.Principal(chi.URLParam(r, "peer"))

	var body postMessageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	if err := h.wp.PostToPeerInbox(r.Context(), principal, peer, body.Text, body.ReplyTo); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) getConversationMessages(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	name := chi.URLParam(r, "name")

	messages, err := h.wp.FetchConversationMessages(r.Context(), principal, name, parseFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *handlers) getInboxMessages(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	messages := h.wp.FetchInboxMessages(r.Context(), principal, parseFilter(r))
	writeJSON(w, http.StatusOK, messages)
}

func (h *handlers) getReceipts(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	id := chi.URLParam(r, "id")

	receipts, err := h.wp.FetchReceipts(r.Context(), principal, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (h *handlers) react(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	id := chi.URLParam(r, "id")

	reaction, err := strconv.ParseInt(chi.URLParam(r, "reaction"), 10, 32)
	if err != nil {
		http.Error(w, "malformed reaction", http.StatusBadRequest)
		return
	}

	if err := h.wp.React(r.Context(), principal, id, int32(reaction)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) markAsRead(w http.ResponseWriter, r *http.Request) {
	principal := ws.Principal(r)
	id := chi.URLParam(r, "id")

	if err := h.wp.MarkAsRead(r.Context(), principal, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func parseFilter(r *http.Request) model.MessageFilter {
	q := r.URL.Query()
	var filter model.MessageFilter

	if v := q.Get("source"); v != "" {
		p := model.Principal(v)
		filter.Source = &p
	}
	if v := q.Get("reply_to"); v != "" {
		filter.ReplyTo = &v
	}
	if v := q.Get("created"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.Created = &n
		}
	}
	// spec.md §4.1: retrieve_messages defaults limit to 1000, not
	// original_source's default_limit()=50.
	filter.Limit = 1000
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	return filter
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the write path's transport-agnostic error sentinels
// to the status codes spec.md §6/§7 assign per endpoint.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, writepath.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, writepath.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case writepath.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case writepath.IsQueueUnavailable(err):
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
