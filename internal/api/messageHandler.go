package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/chat"
	"github.com/saparbayev-azizbek-12/chat-app/internal/metrics"
	"github.com/saparbayev-azizbek-12/chat-app/internal/middleware"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"
	"github.com/saparbayev-azizbek-12/chat-app/internal/types"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// hubError maps the hub's error taxonomy onto HTTP statuses.
func hubError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrUnauthorized):
		http.Error(w, "Unauthorized", http.StatusForbidden)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, chat.ErrValidation):
		http.Error(w, "Validation failed", http.StatusBadRequest)
	default:
		log.Printf("[API] Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// PullMessagesHandler is the cursor-based pull path. Strict greater-than
// cursor semantics, page size capped, ascending chronological order.
func PullMessagesHandler(hub *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		roomID, ok := pathUUID(r, "roomID")
		if !ok {
			http.Error(w, "Invalid room id", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		member, err := hub.IsMember(dbctx, roomID, user.ID)
		if err != nil {
			hubError(w, err)
			return
		}
		if !member {
			http.Error(w, "Unauthorized", http.StatusForbidden)
			return
		}

		// Pulling is also a liveness signal.
		hub.Presence().Touch(user.ID)
		metrics.PullRequests.Inc()

		page, err := hub.Coordinator().FetchSince(dbctx, roomID, r.URL.Query().Get("cursor"))
		if err != nil {
			hubError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

// SendMessageHandler accepts a text send over plain HTTP. It runs through
// the same persist-then-broadcast pipeline as the socket path, so positions
// stay consistent across both.
func SendMessageHandler(hub *chat.Hub) http.HandlerFunc {
	type sendRequest struct {
		Content string     `json:"content"`
		ReplyTo *uuid.UUID `json:"reply_to,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		roomID, ok := pathUUID(r, "roomID")
		if !ok {
			http.Error(w, "Invalid room id", http.StatusBadRequest)
			return
		}

		var payload sendRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		msg, err := hub.SendText(dbctx, user, roomID, payload.Content, payload.ReplyTo)
		if err != nil {
			hubError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, msg)
	}
}

func DeleteMessageHandler(hub *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		messageID, ok := pathUUID(r, "messageID")
		if !ok {
			http.Error(w, "Invalid message id", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if _, err := hub.DeleteMessage(dbctx, user, messageID); err != nil {
			hubError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func EditMessageHandler(hub *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		messageID, ok := pathUUID(r, "messageID")
		if !ok {
			http.Error(w, "Invalid message id", http.StatusBadRequest)
			return
		}

		var payload types.EditMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		msg, err := hub.EditMessage(dbctx, user, messageID, payload.Content)
		if err != nil {
			hubError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, msg)
	}
}

func ReactHandler(hub *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		messageID, ok := pathUUID(r, "messageID")
		if !ok {
			http.Error(w, "Invalid message id", http.StatusBadRequest)
			return
		}

		var payload types.ReactionRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		outcome, err := hub.React(dbctx, user, messageID, payload.Reaction)
		if err != nil {
			hubError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "action": outcome})
	}
}

func MarkReadHandler(hub *chat.Hub) http.HandlerFunc {
	type markReadRequest struct {
		MessageIDs []uuid.UUID `json:"message_ids"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		roomID, ok := pathUUID(r, "roomID")
		if !ok {
			http.Error(w, "Invalid room id", http.StatusBadRequest)
			return
		}

		var payload markReadRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := hub.MarkRead(dbctx, user, roomID, payload.MessageIDs); err != nil {
			hubError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "marked_count": len(payload.MessageIDs)})
	}
}
