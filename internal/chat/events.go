package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/saparbayev-azizbek-12/chat-app/internal/models"

	"github.com/google/uuid"
)

type InboundType string

const (
	InboundText          InboundType = "text"
	InboundMediaAnnounce InboundType = "media-announce"
	InboundTyping        InboundType = "typing"
)

// InboundEvent is the closed set of envelopes a client may send over the
// socket. Unknown kinds are a decode error, not a silent passthrough.
type InboundEvent struct {
	Type      InboundType `json:"type"`
	Content   string      `json:"content,omitempty"`
	MessageID *uuid.UUID  `json:"message_id,omitempty"`
	ReplyTo   *uuid.UUID  `json:"reply_to,omitempty"`
	IsTyping  bool        `json:"is_typing,omitempty"`
}

// DecodeInbound parses and validates a raw inbound frame. Returns
// ErrMalformed for anything outside the closed variant set.
func DecodeInbound(data []byte) (*InboundEvent, error) {
	ev := &InboundEvent{}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch ev.Type {
	case InboundText, InboundTyping:
	case InboundMediaAnnounce:
		if ev.MessageID == nil {
			return nil, fmt.Errorf("%w: media-announce without message_id", ErrMalformed)
		}
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrMalformed, ev.Type)
	}

	return ev, nil
}

type EventType string

const (
	EventMessage  EventType = "message"
	EventTyping   EventType = "typing"
	EventMutation EventType = "mutation"
	EventError    EventType = "error"
)

// Sender is the display projection of the user attached to an event.
type Sender struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

func SenderOf(u *models.User) *Sender {
	if u == nil {
		return nil
	}
	return &Sender{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type MutationKind string

const (
	MutationDelete   MutationKind = "delete"
	MutationEdit     MutationKind = "edit"
	MutationReaction MutationKind = "reaction"
)

// Mutation describes an in-place change to an existing message, keyed by
// message id so subscribers update their view instead of appending.
type Mutation struct {
	Kind      MutationKind           `json:"kind"`
	MessageID uuid.UUID              `json:"message_id"`
	Message   *models.Message        `json:"message,omitempty"`
	UserID    uuid.UUID              `json:"user_id,omitempty"`
	Reaction  string                 `json:"reaction,omitempty"`
	Outcome   models.ReactionOutcome `json:"outcome,omitempty"`
}

// Event is the outbound envelope pushed to subscribers and returned by the
// pull endpoint. Position is set for events that occupy a slot in the room's
// sync order; typing and error events carry none.
type Event struct {
	Type     EventType       `json:"type"`
	Message  *models.Message `json:"message,omitempty"`
	User     *Sender         `json:"user,omitempty"`
	IsTyping bool            `json:"is_typing,omitempty"`
	Mutation *Mutation       `json:"mutation,omitempty"`
	Error    string          `json:"error,omitempty"`
	Position int64           `json:"position,omitempty"`
}

func messageEvent(m *models.Message, sender *Sender) *Event {
	return &Event{
		Type:     EventMessage,
		Message:  m,
		User:     sender,
		Position: m.Position(),
	}
}

func typingEvent(sender *Sender, isTyping bool) *Event {
	return &Event{
		Type:     EventTyping,
		User:     sender,
		IsTyping: isTyping,
	}
}

func mutationEvent(mut *Mutation) *Event {
	ev := &Event{
		Type:     EventMutation,
		Mutation: mut,
	}
	if mut.Message != nil {
		ev.Position = mut.Message.Position()
	}
	return ev
}

func errorEvent(msg string) *Event {
	return &Event{Type: EventError, Error: msg}
}

// ValidateText applies the pre-persistence checks for a text send: content
// must be non-empty after trimming and within the size cap.
func ValidateText(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty message content", ErrValidation)
	}
	if len(trimmed) > maxContentBytes {
		return "", fmt.Errorf("%w: content exceeds %d bytes", ErrValidation, maxContentBytes)
	}
	return trimmed, nil
}

const maxContentBytes = 4096
