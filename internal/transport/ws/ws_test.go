package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/im-delivery-service/internal/domain/event"
	"github.com/webitel/im-delivery-service/internal/domain/model"
	"github.com/webitel/im-delivery-service/internal/registry"
)

type fakeHub struct {
	registered   []registry.Connector
	unregistered []model.Principal
	privateCalls []string
}

func (h *fakeHub) Broadcast(ev event.Eventer) bool { return true }
func (h *fakeHub) Deliver(ctx context.Context, msg registry.DeliverMessage) bool { return true }
func (h *fakeHub) Private(ctx context.Context, from, to model.Principal, content string) bool {
	h.privateCalls = append(h.privateCalls, content)
	return true
}
func (h *fakeHub) Register(conn registry.Connector)                       { h.registered = append(h.registered, conn) }
func (h *fakeHub) Unregister(principal model.Principal, connID uuid.UUID) { h.unregistered = append(h.unregistered, principal) }
func (h *fakeHub) IsConnected(principal model.Principal) bool             { return false }
func (h *fakeHub) Shutdown()                                              {}

var _ registry.Hubber = (*fakeHub)(nil)

func TestPrincipalMiddleware_SetsContextValue(t *testing.T) {
	var got model.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Principal(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(PrincipalHeader, "alice")
	PrincipalMiddleware(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, model.Principal("alice"), got)
}

func TestPrincipalMiddleware_NoHeaderLeavesEmpty(t *testing.T) {
	var got model.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Principal(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	PrincipalMiddleware(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, model.Principal(""), got)
}

func TestServeHTTP_RejectsMissingPrincipal(t *testing.T) {
	h := NewHandler(&fakeHub{})
	req := httptest.NewRequest(http.MethodGet, "/ws/", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeHTTP_RelaysPrivateFrame(t *testing.T) {
	hub := &fakeHub{}
	h := NewHandler(hub)

	srv := httptest.NewServer(PrincipalMiddleware(h))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	header.Set(PrincipalHeader, "alice")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"private","to":"bob","content":"hi"}`)))

	require.Eventually(t, func() bool {
		return len(hub.privateCalls) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "hi", hub.privateCalls[0])
	require.Len(t, hub.registered, 1)
}

func TestWriteEvent_CachesMarshaledPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		h := &Handler{}
		ev := event.NewMessageEvent(&model.Message{ID: "m1", Text: "hi"}, "bob")
		require.NoError(t, h.writeEvent(conn, ev))
		assert.NotNil(t, ev.GetCached(), "writeEvent must populate the event's cache on first marshal")
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "m1")
}

func TestWriteEvent_PrivateFrameIsNotDoubleEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		h := &Handler{}
		// Mirrors registry.Hub.Private: it pre-marshals {from,content}
		// before constructing the event.
		frame := []byte(`{"from":"alice","content":"hi"}`)
		ev := event.NewPrivateEvent("bob", frame)
		require.NoError(t, h.writeEvent(conn, ev))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"alice","content":"hi"}`, string(data),
		"the recipient must see the original JSON object, not a base64-encoded string")
}
