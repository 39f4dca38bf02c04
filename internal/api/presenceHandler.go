package api

import (
	"net/http"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/chat"
	"github.com/saparbayev-azizbek-12/chat-app/internal/middleware"
	"github.com/saparbayev-azizbek-12/chat-app/internal/types"
)

// HeartbeatHandler refreshes the caller's presence, opportunistically sweeps
// stale entries, and returns who is online. Clients without an open
// websocket poll this to stay online.
func HeartbeatHandler(presence *chat.PresenceTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		presence.Touch(user.ID)

		now := time.Now()
		presence.SweepStale(now)

		writeJSON(w, http.StatusOK, types.OnlineUsersResponse{OnlineUsers: presence.Online(now)})
	}
}
