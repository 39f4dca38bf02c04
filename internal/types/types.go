package types

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateGroupRequest struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Participants []uuid.UUID `json:"participants"`
}

type ReactionRequest struct {
	Reaction string `json:"reaction"`
}

type EditMessageRequest struct {
	Content string `json:"content"`
}

type OnlineUsersResponse struct {
	OnlineUsers []uuid.UUID `json:"online_users"`
}
