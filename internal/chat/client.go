package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/middleware"
	"github.com/saparbayev-azizbek-12/chat-app/internal/models"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthorizing
	StateActive
	StateClosing
	StateClosed
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 10 * time.Second
	maxFrame   = 8192
	sendBuffer = 256
)

// Session terminates one authenticated connection bound to exactly one room.
// It decodes inbound events, re-validates membership per event through the
// hub, and serializes outbound delivery. Ephemeral: exists only while the
// connection is open.
type Session struct {
	Conn    *websocket.Conn
	Hub     *Hub
	User    *models.User
	Room    uuid.UUID
	Send    chan []byte
	Limiter *middleware.RateLimiter

	LastWarning time.Time
	state       atomic.Int32
	once        sync.Once
}

func NewSession(conn *websocket.Conn, hub *Hub, user *models.User, roomID uuid.UUID, limiter *middleware.RateLimiter) *Session {
	s := &Session{
		Conn:    conn,
		Hub:     hub,
		User:    user,
		Room:    roomID,
		Send:    make(chan []byte, sendBuffer),
		Limiter: limiter,
	}
	s.state.Store(int32(StateConnecting))
	return s
}

func (s *Session) UserID() uuid.UUID   { return s.User.ID }
func (s *Session) RoomID() uuid.UUID   { return s.Room }
func (s *Session) State() SessionState { return SessionState(s.state.Load()) }

// Start authorizes the session into its room and launches the pumps.
// Authorizing fails closed: a non-member goes straight to Closed with the
// connection dropped and no error event on the wire.
func (s *Session) Start(ctx context.Context) error {
	s.state.Store(int32(StateAuthorizing))

	if err := s.Hub.Subscribe(ctx, s.Room, s); err != nil {
		s.state.Store(int32(StateClosed))
		s.Conn.Close()
		return err
	}

	s.state.Store(int32(StateActive))
	go s.WritePump()
	go s.ReadPump()
	return nil
}

// Deliver enqueues an outbound event without blocking. The originator's own
// typing signal is suppressed here, at delivery time, by comparing sender
// identity. A full buffer reports the session unreachable.
func (s *Session) Deliver(ev *Event) bool {
	if ev.Type == EventTyping && ev.User != nil && ev.User.ID == s.User.ID {
		return true
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[CLIENT] Marshal error for user %s: %v", s.User.ID, err)
		return true
	}

	select {
	case s.Send <- payload:
		return true
	default:
		return false
	}
}

// Close terminates the session from outside the pumps. The hub calls it
// when it evicts an unreachable subscriber so the client's socket dies
// instead of lingering while receiving nothing.
func (s *Session) Close() { s.cleanup() }

// cleanup is the single exit path: unsubscribe from the room, release
// presence, close the connection. Runs exactly once no matter which pump
// fails first.
func (s *Session) cleanup() {
	s.once.Do(func() {
		s.state.Store(int32(StateClosing))
		s.Hub.Unsubscribe(s.Room, s)
		s.Conn.Close()
		s.state.Store(int32(StateClosed))
		log.Printf("[CLIENT] Session closed for user %s in room %s", s.User.ID, s.Room)
	})
}

func (s *Session) sendError(msg string) {
	payload, _ := json.Marshal(errorEvent(msg))
	select {
	case s.Send <- payload:
	default:
	}
}

func (s *Session) ReadPump() {
	defer s.cleanup()

	s.Conn.SetReadLimit(maxFrame)
	s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[CLIENT] Unexpected close: %v", err)
			}
			return
		}

		if !s.Limiter.Allow() {
			if time.Since(s.LastWarning) > 3*time.Second {
				s.sendError("rate limit exceeded")
				s.LastWarning = time.Now()
			}
			continue
		}

		// Every inbound frame doubles as a heartbeat.
		s.Hub.Presence().Touch(s.User.ID)

		ev, err := DecodeInbound(raw)
		if err != nil {
			// Undecodable envelope: dropped, connection stays open.
			log.Printf("[CLIENT] Dropping malformed event from %s: %v", s.User.ID, err)
			continue
		}

		if !s.handleInbound(ev) {
			return
		}
	}
}

// handleInbound dispatches one decoded event. Returns false when the session
// must terminate (membership revoked mid-session).
func (s *Session) handleInbound(ev *InboundEvent) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch ev.Type {
	case InboundText:
		_, err := s.Hub.SendText(ctx, s.User, s.Room, ev.Content, ev.ReplyTo)
		switch {
		case err == nil:
		case errors.Is(err, ErrUnauthorized):
			// Membership lapsed while connected: this session may no
			// longer post or receive.
			s.sendError("unauthorized")
			return false
		case errors.Is(err, ErrValidation):
			s.sendError("validation failed")
		default:
			// Transient store failure, reported to this caller only.
			log.Printf("[CLIENT] Text send failed for %s: %v", s.User.ID, err)
			s.sendError("message could not be saved, try again")
		}

	case InboundMediaAnnounce:
		err := s.Hub.AnnounceMedia(ctx, s.User, s.Room, *ev.MessageID)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrNotFound):
			// Unresolvable reference: silently dropped.
		case errors.Is(err, ErrUnauthorized):
			s.sendError("unauthorized")
			return false
		default:
			log.Printf("[CLIENT] Media announce failed for %s: %v", s.User.ID, err)
		}

	case InboundTyping:
		if err := s.Hub.Typing(ctx, s.User, s.Room, ev.IsTyping); err != nil {
			if errors.Is(err, ErrUnauthorized) {
				s.sendError("unauthorized")
				return false
			}
			log.Printf("[CLIENT] Typing fan-out failed for %s: %v", s.User.ID, err)
		}
	}

	return true
}

func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.cleanup()
	}()

	for {
		select {
		case message := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := s.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(s.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-s.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
