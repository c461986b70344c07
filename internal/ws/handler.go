package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"chatcore/internal/domain"
	"chatcore/internal/metrics"
	"chatcore/internal/presence"
	"chatcore/internal/service"
)

type joinPayload struct {
	UserID string `json:"userId"`
}

type joinConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type fetchPayload struct {
	ConversationID string `json:"conversationId"`
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if o := strings.TrimSpace(strings.ToLower(origin)); o != "" {
			allowed[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		_, ok := allowed[origin]
		return ok
	}
}

func onlineUsersEvent(users []string) map[string]any {
	if users == nil {
		users = []string{}
	}
	return map[string]any{"type": "onlineUsers", "users": users}
}

// MakeHandler returns the HTTP handler for the /ws endpoint. After the
// upgrade the connection speaks event-named JSON frames:
//
//   - join             -> announce identity; onlineUsers broadcast to all
//   - joinConversation -> subscribe to a conversation's broadcast group
//   - sendMessage      -> persist & fan out; message or messageError
//   - fetchMessages    -> previousMessages (≤ history limit) or fetchError
//
// The identity announced by join is taken at face value: the realtime
// surface does not verify it against the auth collaborator. Binding is
// irreversible; a join for a different user on a bound session is dropped.
func MakeHandler(
	hub *Hub,
	registry *presence.Registry,
	msgSvc *service.MessageService,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := NewClient(conn)
		hub.Register(client)
		metrics.ActiveConnections.Inc()
		glog.V(2).Infof("ws: session %s connected from %s", client.ID, r.RemoteAddr)

		// boundUser transitions empty -> some user id exactly once for the
		// connection's lifetime.
		var boundUser string

		defer func() {
			hub.Unregister(client)
			client.Close()
			metrics.ActiveConnections.Dec()
			if user, online, changed := registry.Withdraw(client); changed {
				glog.V(2).Infof("ws: %s went offline (session %s)", user, client.ID)
				metrics.OnlineUsers.Set(float64(len(online)))
				hub.BroadcastAll(onlineUsersEvent(online))
			}
		}()

		ctx := r.Context()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var env struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(data, &env); err != nil {
				glog.Warningf("ws: malformed frame from session %s: %v", client.ID, err)
				continue
			}

			switch env.Type {

			case "join":
				var p joinPayload
				if err := json.Unmarshal(data, &p); err != nil || p.UserID == "" {
					glog.Warningf("ws: join without userId from session %s", client.ID)
					continue
				}
				if boundUser != "" && boundUser != p.UserID {
					glog.Warningf("ws: session %s bound to %s rejected rebind to %s", client.ID, boundUser, p.UserID)
					continue
				}
				boundUser = p.UserID
				online := registry.Announce(p.UserID, client)
				metrics.OnlineUsers.Set(float64(len(online)))
				hub.BroadcastAll(onlineUsersEvent(online))

			case "joinConversation":
				var p joinConversationPayload
				if err := json.Unmarshal(data, &p); err != nil {
					glog.Warningf("ws: malformed joinConversation from session %s: %v", client.ID, err)
					continue
				}
				id, err := domain.ParseConversationID(p.ConversationID)
				if err != nil {
					glog.Warningf("ws: joinConversation from session %s: %v", client.ID, err)
					continue
				}
				hub.Join(client, id)

			case "sendMessage":
				var in service.SendInput
				if err := json.Unmarshal(data, &in); err != nil {
					glog.Warningf("ws: malformed sendMessage from session %s: %v", client.ID, err)
					continue
				}
				if _, err := msgSvc.Send(ctx, in); err != nil {
					if errors.Is(err, domain.ErrInvalidInput) {
						// dropped silently to the sender, no state mutated
						glog.Warningf("ws: sendMessage from session %s: %v", client.ID, err)
						continue
					}
					glog.Errorf("ws: sendMessage from session %s: %v", client.ID, err)
					client.Deliver(map[string]any{"type": "messageError", "error": "failed to store message"})
				}

			case "fetchMessages":
				var p fetchPayload
				if err := json.Unmarshal(data, &p); err != nil {
					glog.Warningf("ws: malformed fetchMessages from session %s: %v", client.ID, err)
					continue
				}
				id, err := domain.ParseConversationID(p.ConversationID)
				if err != nil {
					glog.Warningf("ws: fetchMessages from session %s: %v", client.ID, err)
					continue
				}
				msgs, err := msgSvc.History(ctx, id)
				if err != nil {
					glog.Errorf("ws: fetchMessages from session %s: %v", client.ID, err)
					client.Deliver(map[string]any{"type": "fetchError", "error": "failed to load messages"})
					continue
				}
				if msgs == nil {
					msgs = []*service.MessageResponse{}
				}
				client.Deliver(map[string]any{
					"type":           "previousMessages",
					"conversationId": id.String(),
					"messages":       msgs,
				})

			default:
				glog.V(2).Infof("ws: unknown event %q from session %s", env.Type, client.ID)
			}
		}
	}
}
