package api

import (
	"log"
	"net/http"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/chat"
	"github.com/saparbayev-azizbek-12/chat-app/internal/middleware"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler upgrades an authenticated request into a live room
// session. A non-member gets the connection closed without detail.
func WebsocketHandler(hub *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		roomID, ok := pathUUID(r, "roomID")
		if !ok {
			http.Error(w, "Invalid room id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WS] Upgrade failed for user %s: %v", user.Username, err)
			return
		}

		limiter := middleware.NewRatelimiter(5, 500*time.Millisecond)
		session := chat.NewSession(conn, hub, user, roomID, limiter)

		// Start closes the connection itself when authorization fails, with
		// no detail on the wire.
		if err := session.Start(r.Context()); err != nil {
			log.Printf("[WS] Session rejected for user %s in room %s: %v", user.Username, roomID, err)
			return
		}

		log.Printf("[WS] User %s connected to room %s", user.Username, roomID)
	}
}
