package repository

import (
	"context"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/models"

	"github.com/google/uuid"
)

// MessageRepo is the persistence contract for messages. Soft-deleted rows
// stay in place so sync cursors remain valid.
type MessageRepo interface {
	Save(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	// ListAfter returns messages with created_at strictly greater than
	// after, ascending, capped at limit.
	ListAfter(ctx context.Context, roomID uuid.UUID, after time.Time, limit int) ([]*models.Message, error)
	// ListRecent returns the newest limit messages in ascending order.
	ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.Message, error)
	// SoftDelete tombstones the message: sets deleted_at, clears content.
	// Only the sender may delete; a mismatch reports ErrNotFound.
	SoftDelete(ctx context.Context, id, senderID uuid.UUID, at time.Time) (*models.Message, error)
	// Edit replaces the content of a non-deleted message owned by senderID.
	Edit(ctx context.Context, id, senderID uuid.UUID, content string, at time.Time) (*models.Message, error)
}

// RoomRepo owns room records and authoritative membership.
type RoomRepo interface {
	Create(ctx context.Context, room *models.Room, memberIDs []uuid.UUID) error
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	// FindPrivateRoom returns the existing private room between two users,
	// or ErrNotFound.
	FindPrivateRoom(ctx context.Context, a, b uuid.UUID) (*models.Room, error)
	IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error)
	AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.MemberRole) error
	RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error
}

// ReactionRepo enforces at most one reaction per (message, user) pair.
type ReactionRepo interface {
	// Toggle applies the reaction rules: same kind removes, different kind
	// replaces, absent adds. The whole operation is atomic per pair.
	Toggle(ctx context.Context, messageID, userID uuid.UUID, kind string) (models.ReactionOutcome, error)
	ListForMessage(ctx context.Context, messageID uuid.UUID) ([]*models.Reaction, error)
	// MarkRead records a read receipt, idempotently.
	MarkRead(ctx context.Context, messageID, userID uuid.UUID) error
}

// UserRepo is the user account store.
type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Gateway is the full message-store collaborator the hub talks to. The hub
// never bypasses IsMember checks with cached data beyond a single event.
type Gateway interface {
	MessageRepo
	RoomRepo
	ReactionRepo
	UserRepo
}
