package api

import (
	"net/http"

	"github.com/saparbayev-azizbek-12/chat-app/internal/chat"
	"github.com/saparbayev-azizbek-12/chat-app/internal/metrics"
	"github.com/saparbayev-azizbek-12/chat-app/internal/middleware"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"

	"github.com/gorilla/mux"
)

// NewRouter wires every endpoint. Everything under /api except auth requires
// a valid session cookie.
func NewRouter(hub *chat.Hub, store repository.Gateway) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/signup", SignupHandler(store)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", LoginHandler(store)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", LogoutHandler()).Methods(http.MethodPost)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(middleware.Authenticate(store))

	authed.HandleFunc("/rooms/group", CreateGroupHandler(store)).Methods(http.MethodPost)
	authed.HandleFunc("/rooms/private/{userID}", StartChatHandler(store, store)).Methods(http.MethodPost)
	authed.HandleFunc("/rooms/{roomID}/members/{userID}", AddMemberHandler(store)).Methods(http.MethodPost)
	authed.HandleFunc("/rooms/{roomID}/members/{userID}", RemoveMemberHandler(store)).Methods(http.MethodDelete)

	authed.HandleFunc("/rooms/{roomID}/messages", PullMessagesHandler(hub)).Methods(http.MethodGet)
	authed.HandleFunc("/rooms/{roomID}/messages", SendMessageHandler(hub)).Methods(http.MethodPost)
	authed.HandleFunc("/rooms/{roomID}/messages/{messageID}", DeleteMessageHandler(hub)).Methods(http.MethodDelete)
	authed.HandleFunc("/rooms/{roomID}/messages/{messageID}", EditMessageHandler(hub)).Methods(http.MethodPut)
	authed.HandleFunc("/rooms/{roomID}/messages/{messageID}/reactions", ReactHandler(hub)).Methods(http.MethodPost)
	authed.HandleFunc("/rooms/{roomID}/messages/{messageID}/read", MarkReadHandler(hub)).Methods(http.MethodPost)

	authed.HandleFunc("/presence/heartbeat", HeartbeatHandler(hub.Presence())).Methods(http.MethodPost)
	authed.HandleFunc("/presence/online", HeartbeatHandler(hub.Presence())).Methods(http.MethodGet)

	authed.HandleFunc("/ws/{roomID}", WebsocketHandler(hub)).Methods(http.MethodGet)

	return r
}
