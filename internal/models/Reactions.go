package models

import (
	"time"

	"github.com/google/uuid"
)

// Reaction holds at most one row per (message, user) pair. Setting the same
// kind again removes the row, a different kind replaces it.
type Reaction struct {
	MessageID uuid.UUID `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionOutcome describes what a toggle did to the (message, user) pair.
type ReactionOutcome string

const (
	ReactionAdded   ReactionOutcome = "added"
	ReactionUpdated ReactionOutcome = "updated"
	ReactionRemoved ReactionOutcome = "removed"
)

// ReadReceipt marks a message as read by a user, created at most once per pair.
type ReadReceipt struct {
	MessageID uuid.UUID `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}
