package ws_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/presence"
	"chatcore/internal/security"
	"chatcore/internal/service"
	"chatcore/internal/store/sqlite"
	"chatcore/internal/ws"
)

const testOrigin = "http://chat.test"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(db))

	enc, err := security.NewEncryptor([]byte("test-key"))
	require.NoError(t, err)

	hub := ws.NewHub()
	registry := presence.NewRegistry()
	msgSvc := service.NewMessageService(sqlite.NewMessageRepo(db), hub, registry, enc, 50)

	srv := httptest.NewServer(ws.MakeHandler(hub, registry, msgSvc, []string{testOrigin}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {testOrigin}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, payload map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(payload))
}

func readEvent(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event map[string]any
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, wantType, event["type"])
	return event
}

func onlineUsers(event map[string]any) []string {
	raw, _ := event["users"].([]any)
	users := make([]string, 0, len(raw))
	for _, u := range raw {
		users = append(users, u.(string))
	}
	return users
}

func TestRejectsUnknownOrigin(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestJoinSendFetchFlow(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, map[string]any{"type": "join", "userId": "alice"})
	assert.Equal(t, []string{"alice"}, onlineUsers(readEvent(t, alice, "onlineUsers")))

	bob := dial(t, srv)
	send(t, bob, map[string]any{"type": "join", "userId": "bob"})
	assert.Equal(t, []string{"alice", "bob"}, onlineUsers(readEvent(t, bob, "onlineUsers")))
	assert.Equal(t, []string{"alice", "bob"}, onlineUsers(readEvent(t, alice, "onlineUsers")))

	send(t, alice, map[string]any{"type": "joinConversation", "conversationId": "alice-bob"})
	send(t, alice, map[string]any{
		"type":       "sendMessage",
		"senderId":   "alice",
		"receiverId": "bob",
		"body":       "hello bob",
	})

	// alice joined the group on this connection, so she sees her own send
	event := readEvent(t, alice, "message")
	msg := event["message"].(map[string]any)
	assert.Equal(t, "alice-bob", msg["conversationId"])
	assert.Equal(t, "hello bob", msg["body"])

	// bob never joined the conversation group; the direct presence path
	// still delivers exactly one copy
	event = readEvent(t, bob, "message")
	msg = event["message"].(map[string]any)
	assert.Equal(t, "alice", msg["senderId"])
	assert.Equal(t, "hello bob", msg["body"])

	send(t, bob, map[string]any{"type": "fetchMessages", "conversationId": "alice-bob"})
	event = readEvent(t, bob, "previousMessages")
	assert.Equal(t, "alice-bob", event["conversationId"])
	msgs := event["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello bob", msgs[0].(map[string]any)["body"])
}

func TestDisconnectBroadcastsPresence(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, map[string]any{"type": "join", "userId": "alice"})
	readEvent(t, alice, "onlineUsers")

	bob := dial(t, srv)
	send(t, bob, map[string]any{"type": "join", "userId": "bob"})
	readEvent(t, bob, "onlineUsers")
	readEvent(t, alice, "onlineUsers")

	require.NoError(t, alice.Close())

	assert.Equal(t, []string{"bob"}, onlineUsers(readEvent(t, bob, "onlineUsers")))
}

func TestSendWithoutReceiverIsDroppedSilently(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, map[string]any{"type": "join", "userId": "alice"})
	readEvent(t, alice, "onlineUsers")

	send(t, alice, map[string]any{"type": "sendMessage", "senderId": "alice", "body": "to nobody"})

	// no error event comes back; the next frame alice sees is her own
	// presence echo from a fresh join
	send(t, alice, map[string]any{"type": "join", "userId": "alice"})
	readEvent(t, alice, "onlineUsers")
}
