package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"

	"github.com/google/uuid"
)

// Subscriber is one live, authenticated connection bound to a room. Deliver
// is best-effort and must never block; false means the subscriber is
// unreachable and will be dropped by the hub. Close terminates the
// underlying connection so an evicted client sees the push path die and can
// fall back to pull, instead of holding a socket that silently receives
// nothing.
type Subscriber interface {
	UserID() uuid.UUID
	RoomID() uuid.UUID
	Deliver(ev *Event) bool
	Close()
}

type roomSet struct {
	mu   sync.Mutex
	subs map[Subscriber]struct{}
}

// RoomDirectory maps room ids to their currently-subscribed sessions.
// Pure in-memory index; membership authority stays with the gateway and is
// consulted on every subscribe. Each room carries its own lock so unrelated
// rooms never block each other.
type RoomDirectory struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*roomSet
	store repository.RoomRepo
}

func NewRoomDirectory(store repository.RoomRepo) *RoomDirectory {
	return &RoomDirectory{
		rooms: make(map[uuid.UUID]*roomSet),
		store: store,
	}
}

func (d *RoomDirectory) room(roomID uuid.UUID) *roomSet {
	d.mu.RLock()
	rs, ok := d.rooms[roomID]
	d.mu.RUnlock()
	if ok {
		return rs
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if rs, ok = d.rooms[roomID]; !ok {
		rs = &roomSet{subs: make(map[Subscriber]struct{})}
		d.rooms[roomID] = rs
	}
	return rs
}

// Subscribe authorizes the subscriber against authoritative membership and
// adds it to the room's set. ErrUnauthorized means the caller must close
// the connection.
func (d *RoomDirectory) Subscribe(ctx context.Context, roomID uuid.UUID, sub Subscriber) error {
	member, err := d.store.IsMember(ctx, roomID, sub.UserID())
	if err != nil {
		return fmt.Errorf("subscribe membership check: %w", err)
	}
	if !member {
		return ErrUnauthorized
	}

	rs := d.room(roomID)
	rs.mu.Lock()
	rs.subs[sub] = struct{}{}
	rs.mu.Unlock()
	return nil
}

// Unsubscribe removes the subscriber and reports whether it was present, so
// callers can keep presence refcounts exact when eviction and session
// cleanup race.
func (d *RoomDirectory) Unsubscribe(roomID uuid.UUID, sub Subscriber) bool {
	d.mu.RLock()
	rs, ok := d.rooms[roomID]
	d.mu.RUnlock()
	if !ok {
		return false
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, present := rs.subs[sub]; !present {
		return false
	}
	delete(rs.subs, sub)
	return true
}

// Members returns a snapshot of the room's current subscribers.
func (d *RoomDirectory) Members(roomID uuid.UUID) []Subscriber {
	d.mu.RLock()
	rs, ok := d.rooms[roomID]
	d.mu.RUnlock()
	if !ok {
		return nil
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	members := make([]Subscriber, 0, len(rs.subs))
	for sub := range rs.subs {
		members = append(members, sub)
	}
	return members
}
