package models

import (
	"time"

	"github.com/google/uuid"
)

type RoomKind string

const (
	RoomPrivate RoomKind = "private"
	RoomGroup   RoomKind = "group"
)

type Room struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Kind      RoomKind  `json:"kind"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberRole string

const (
	RoleMember  MemberRole = "member"
	RoleAdmin   MemberRole = "admin"
	RoleCreator MemberRole = "creator"
)

type RoomMember struct {
	RoomID   uuid.UUID  `json:"room_id"`
	UserID   uuid.UUID  `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}
