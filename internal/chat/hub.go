package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/metrics"
	"github.com/saparbayev-azizbek-12/chat-app/internal/models"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"

	"github.com/google/uuid"
)

// Hub owns per-room fan-out. Every state-changing operation re-checks
// authoritative room membership through the gateway first, persists second,
// and broadcasts strictly last, so subscribers never see an unpersisted
// message and a failed persist is reported to the single caller only.
type Hub struct {
	directory   *RoomDirectory
	coordinator *Coordinator
	store       repository.Gateway
	presence    *PresenceTracker
}

func NewHub(store repository.Gateway, directory *RoomDirectory, coordinator *Coordinator, presence *PresenceTracker) *Hub {
	log.Println("[HUB] Initializing new Hub instance...")
	return &Hub{
		directory:   directory,
		coordinator: coordinator,
		store:       store,
		presence:    presence,
	}
}

func (h *Hub) Presence() *PresenceTracker { return h.presence }
func (h *Hub) Coordinator() *Coordinator  { return h.coordinator }
func (h *Hub) Directory() *RoomDirectory  { return h.directory }

// Subscribe authorizes the session into its room and marks the user online.
func (h *Hub) Subscribe(ctx context.Context, roomID uuid.UUID, sub Subscriber) error {
	if err := h.directory.Subscribe(ctx, roomID, sub); err != nil {
		return err
	}
	h.presence.Connect(sub.UserID())
	metrics.ActiveSessions.Inc()
	log.Printf("[HUB] User %s subscribed to room %s", sub.UserID(), roomID)
	return nil
}

// Unsubscribe removes the session and marks presence offline unless other
// sessions for the same user remain active. Idempotent: eviction by the
// fan-out path and session cleanup may both land here.
func (h *Hub) Unsubscribe(roomID uuid.UUID, sub Subscriber) {
	if !h.directory.Unsubscribe(roomID, sub) {
		return
	}
	h.presence.Disconnect(sub.UserID())
	metrics.ActiveSessions.Dec()
	log.Printf("[HUB] User %s unsubscribed from room %s", sub.UserID(), roomID)
}

// IsMember consults authoritative membership in the gateway. Never served
// from cache beyond the single event being processed.
func (h *Hub) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	return h.store.IsMember(ctx, roomID, userID)
}

func (h *Hub) requireMember(ctx context.Context, roomID, userID uuid.UUID) error {
	member, err := h.store.IsMember(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("membership re-check: %w", err)
	}
	if !member {
		return ErrUnauthorized
	}
	return nil
}

// SendText validates, persists, and fans out a text message. The position is
// assigned before persistence and is visible to the pull path before this
// returns.
func (h *Hub) SendText(ctx context.Context, sender *models.User, roomID uuid.UUID, content string, replyTo *uuid.UUID) (*models.Message, error) {
	trimmed, err := ValidateText(content)
	if err != nil {
		return nil, err
	}

	if err := h.requireMember(ctx, roomID, sender.ID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		SenderID:  sender.ID,
		Type:      models.TypeText,
		Content:   trimmed,
		ReplyTo:   replyTo,
		CreatedAt: h.coordinator.StampNew(roomID, time.Now()),
	}

	if err := h.store.Save(ctx, msg); err != nil {
		// Reported to the sending session only; nothing was broadcast.
		return nil, fmt.Errorf("persist message: %w", err)
	}

	h.publish(roomID, messageEvent(msg, SenderOf(sender)))
	return msg, nil
}

// AnnounceMedia fans out a message that was created through the out-of-band
// upload path. An unresolvable id is dropped silently (repository.ErrNotFound
// to the caller, no broadcast); an announcer who is not the message's sender
// is rejected as unauthorized.
func (h *Hub) AnnounceMedia(ctx context.Context, sender *models.User, roomID, messageID uuid.UUID) error {
	if err := h.requireMember(ctx, roomID, sender.ID); err != nil {
		return err
	}

	msg, err := h.store.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.RoomID != roomID || msg.Deleted() {
		return repository.ErrNotFound
	}
	if msg.SenderID != sender.ID {
		return ErrUnauthorized
	}
	if !models.ValidMessageType(msg.Type) {
		return fmt.Errorf("%w: unknown message type %q", ErrValidation, msg.Type)
	}

	h.coordinator.Register(roomID, msg.Position())
	h.publish(roomID, messageEvent(msg, SenderOf(sender)))
	return nil
}

// Typing fans out an ephemeral typing signal. Nothing is persisted and the
// originator is excluded at delivery time by each session.
func (h *Hub) Typing(ctx context.Context, sender *models.User, roomID uuid.UUID, isTyping bool) error {
	if err := h.requireMember(ctx, roomID, sender.ID); err != nil {
		return err
	}

	h.fanOut(roomID, typingEvent(SenderOf(sender), isTyping))
	return nil
}

// DeleteMessage tombstones a message the sender owns and fans out the change
// as a mutation event keyed by message id.
func (h *Hub) DeleteMessage(ctx context.Context, sender *models.User, messageID uuid.UUID) (*models.Message, error) {
	msg, err := h.store.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Deleted() {
		return nil, repository.ErrNotFound
	}
	if msg.SenderID != sender.ID {
		return nil, ErrUnauthorized
	}
	if err := h.requireMember(ctx, msg.RoomID, sender.ID); err != nil {
		return nil, err
	}

	deleted, err := h.store.SoftDelete(ctx, messageID, sender.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	h.publish(msg.RoomID, mutationEvent(&Mutation{
		Kind:      MutationDelete,
		MessageID: messageID,
		Message:   deleted,
		UserID:    sender.ID,
	}))
	return deleted, nil
}

// EditMessage replaces the content of a message the sender owns.
func (h *Hub) EditMessage(ctx context.Context, sender *models.User, messageID uuid.UUID, content string) (*models.Message, error) {
	trimmed, err := ValidateText(content)
	if err != nil {
		return nil, err
	}

	msg, err := h.store.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Deleted() {
		return nil, repository.ErrNotFound
	}
	if msg.SenderID != sender.ID {
		return nil, ErrUnauthorized
	}
	if err := h.requireMember(ctx, msg.RoomID, sender.ID); err != nil {
		return nil, err
	}

	edited, err := h.store.Edit(ctx, messageID, sender.ID, trimmed, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	h.publish(msg.RoomID, mutationEvent(&Mutation{
		Kind:      MutationEdit,
		MessageID: messageID,
		Message:   edited,
		UserID:    sender.ID,
	}))
	return edited, nil
}

// React toggles the sender's reaction on a message. Reacting to a deleted
// message resolves as not-found without surfacing across the room.
func (h *Hub) React(ctx context.Context, sender *models.User, messageID uuid.UUID, kind string) (models.ReactionOutcome, error) {
	if kind == "" {
		return "", fmt.Errorf("%w: empty reaction", ErrValidation)
	}

	msg, err := h.store.GetByID(ctx, messageID)
	if err != nil {
		return "", err
	}
	if msg.Deleted() {
		return "", repository.ErrNotFound
	}
	if err := h.requireMember(ctx, msg.RoomID, sender.ID); err != nil {
		return "", err
	}

	outcome, err := h.store.Toggle(ctx, messageID, sender.ID, kind)
	if err != nil {
		return "", err
	}

	h.fanOut(msg.RoomID, mutationEvent(&Mutation{
		Kind:      MutationReaction,
		MessageID: messageID,
		UserID:    sender.ID,
		Reaction:  kind,
		Outcome:   outcome,
	}))
	return outcome, nil
}

// MarkRead records read receipts for the given messages, idempotently.
func (h *Hub) MarkRead(ctx context.Context, user *models.User, roomID uuid.UUID, messageIDs []uuid.UUID) error {
	if err := h.requireMember(ctx, roomID, user.ID); err != nil {
		return err
	}

	for _, id := range messageIDs {
		if err := h.store.MarkRead(ctx, id, user.ID); err != nil {
			return err
		}
	}
	return nil
}

// publish fans out an event that occupies a position slot. The coordinator
// already knows the position by the time this runs, so a client that pulls
// immediately after missing the push still sees the event exactly once.
func (h *Hub) publish(roomID uuid.UUID, ev *Event) {
	metrics.MessagesPublished.Inc()
	h.fanOut(roomID, ev)
}

// fanOut delivers best-effort to every current subscriber. A slow or broken
// subscriber is unsubscribed, its connection closed, and does not stall the
// others.
func (h *Hub) fanOut(roomID uuid.UUID, ev *Event) {
	for _, sub := range h.directory.Members(roomID) {
		if !sub.Deliver(ev) {
			log.Printf("[HUB] WARNING: Subscriber %s unreachable in room %s. Evicting slow consumer.", sub.UserID(), roomID)
			metrics.DeliveriesDropped.Inc()
			h.Unsubscribe(roomID, sub)
			sub.Close()
		}
	}
}

// IsUnauthorized reports whether err maps to the Unauthorized taxonomy slot.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
