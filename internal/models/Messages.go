package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeVideo    MessageType = "video"
	TypeAudio    MessageType = "audio"
	TypeVoice    MessageType = "voice"
	TypeFile     MessageType = "file"
	TypeLocation MessageType = "location"
	TypeContact  MessageType = "contact"
)

// ValidMessageType reports whether t is one of the known message kinds.
func ValidMessageType(t MessageType) bool {
	switch t {
	case TypeText, TypeImage, TypeVideo, TypeAudio, TypeVoice, TypeFile, TypeLocation, TypeContact:
		return true
	}
	return false
}

type Message struct {
	ID       uuid.UUID   `json:"id"`
	RoomID   uuid.UUID   `json:"room_id"`
	SenderID uuid.UUID   `json:"sender_id"`
	Type     MessageType `json:"message_type"`
	Content  string      `json:"content"`

	FileURL  string `json:"file_url,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	Duration int    `json:"duration,omitempty"`

	// References to other messages by id only. The target may have been
	// deleted since; callers resolve lazily and tolerate a miss.
	ReplyTo       *uuid.UUID `json:"reply_to,omitempty"`
	ForwardedFrom *uuid.UUID `json:"forwarded_from,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the message has been tombstoned.
func (m *Message) Deleted() bool {
	return m.DeletedAt != nil
}

// Position is the message's slot in the per-room sync order. CreatedAt is
// stamped by the sync coordinator's monotonic clock, so positions within a
// room are strictly increasing and unique.
func (m *Message) Position() int64 {
	return m.CreatedAt.UnixNano()
}
