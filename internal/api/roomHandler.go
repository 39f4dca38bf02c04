package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/middleware"
	"github.com/saparbayev-azizbek-12/chat-app/internal/models"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"
	"github.com/saparbayev-azizbek-12/chat-app/internal/types"

	"github.com/google/uuid"
)

// StartChatHandler finds or creates the private room between the caller and
// another user. Idempotent per pair.
func StartChatHandler(rooms repository.RoomRepo, users repository.UserRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		otherID, ok := pathUUID(r, "userID")
		if !ok {
			http.Error(w, "Invalid user id", http.StatusBadRequest)
			return
		}
		if otherID == user.ID {
			http.Error(w, "Cannot start a chat with yourself", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if _, err := users.GetUserByID(dbctx, otherID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				http.Error(w, "User not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		existing, err := rooms.FindPrivateRoom(dbctx, user.ID, otherID)
		if err == nil {
			writeJSON(w, http.StatusOK, existing)
			return
		}
		if !errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		room := &models.Room{
			ID:        uuid.New(),
			Kind:      models.RoomPrivate,
			CreatedBy: user.ID,
		}
		if err := rooms.Create(dbctx, room, []uuid.UUID{user.ID, otherID}); err != nil {
			log.Printf("[ROOMS] Failed to create private room: %v", err)
			http.Error(w, "Failed to create room", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, room)
	}
}

func CreateGroupHandler(rooms repository.RoomRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())

		var payload types.CreateGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		payload.Name = strings.TrimSpace(payload.Name)
		if payload.Name == "" {
			http.Error(w, "Group name is required", http.StatusBadRequest)
			return
		}
		if len(payload.Participants) < 1 {
			http.Error(w, "At least 1 participant required", http.StatusBadRequest)
			return
		}

		members := []uuid.UUID{user.ID}
		for _, id := range payload.Participants {
			if id != user.ID {
				members = append(members, id)
			}
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		room := &models.Room{
			ID:        uuid.New(),
			Name:      payload.Name,
			Kind:      models.RoomGroup,
			CreatedBy: user.ID,
		}
		if err := rooms.Create(dbctx, room, members); err != nil {
			log.Printf("[ROOMS] Failed to create group %q: %v", payload.Name, err)
			http.Error(w, "Failed to create group", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, room)
	}
}

// AddMemberHandler adds a user to a group. Only existing members may grow
// the room.
func AddMemberHandler(rooms repository.RoomRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		roomID, ok := pathUUID(r, "roomID")
		if !ok {
			http.Error(w, "Invalid room id", http.StatusBadRequest)
			return
		}
		targetID, ok := pathUUID(r, "userID")
		if !ok {
			http.Error(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		member, err := rooms.IsMember(dbctx, roomID, user.ID)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !member {
			http.Error(w, "Unauthorized", http.StatusForbidden)
			return
		}

		if err := rooms.AddMember(dbctx, roomID, targetID, models.RoleMember); err != nil {
			http.Error(w, "Failed to add member", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// RemoveMemberHandler revokes membership. A session the removed user still
// has open loses the ability to post on its next event.
func RemoveMemberHandler(rooms repository.RoomRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		roomID, ok := pathUUID(r, "roomID")
		if !ok {
			http.Error(w, "Invalid room id", http.StatusBadRequest)
			return
		}
		targetID, ok := pathUUID(r, "userID")
		if !ok {
			http.Error(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		// Members may leave; removing someone else requires membership too.
		member, err := rooms.IsMember(dbctx, roomID, user.ID)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !member {
			http.Error(w, "Unauthorized", http.StatusForbidden)
			return
		}

		if err := rooms.RemoveMember(dbctx, roomID, targetID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				http.Error(w, "Not a member", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to remove member", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
