package httpserver

import (
	"net/http"

	"chatcore/internal/presence"
	"chatcore/internal/service"
)

// handleListAllMessages returns every stored message, newest first. The
// response is unpaginated; acceptable for the administrative history view it
// serves, a known scale risk beyond that.
func handleListAllMessages(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		msgs, err := msgSvc.All(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load messages"})
			return
		}
		if msgs == nil {
			msgs = []*service.MessageResponse{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func handleOnlineUsers(registry *presence.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"users": registry.Online()})
	}
}
