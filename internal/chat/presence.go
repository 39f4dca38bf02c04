package chat

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type presenceEntry struct {
	online   bool
	lastSeen time.Time
	conns    int
}

// PresenceTracker is the process-scoped online table. It is shared across
// all rooms (a user may be in many) and guarded independently of room state.
type PresenceTracker struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[uuid.UUID]*presenceEntry
}

func NewPresenceTracker(window time.Duration) *PresenceTracker {
	return &PresenceTracker{
		window:  window,
		entries: make(map[uuid.UUID]*presenceEntry),
	}
}

func (p *PresenceTracker) entry(userID uuid.UUID) *presenceEntry {
	e, ok := p.entries[userID]
	if !ok {
		e = &presenceEntry{}
		p.entries[userID] = e
	}
	return e
}

// Connect records one more live connection for the user and asserts online.
func (p *PresenceTracker) Connect(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.entry(userID)
	e.conns++
	e.online = true
	e.lastSeen = time.Now()
}

// Disconnect drops one connection; the user goes offline only when no other
// session for the same user remains active.
func (p *PresenceTracker) Disconnect(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.entry(userID)
	if e.conns > 0 {
		e.conns--
	}
	e.lastSeen = time.Now()
	if e.conns == 0 {
		e.online = false
	}
}

func (p *PresenceTracker) SetOnline(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.entry(userID)
	e.online = true
	e.lastSeen = time.Now()
}

func (p *PresenceTracker) SetOffline(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.entry(userID)
	e.online = false
	e.lastSeen = time.Now()
}

// Touch is the heartbeat-by-side-effect: updates lastSeen and asserts
// online. Idempotent, safe on every inbound request from the user.
func (p *PresenceTracker) Touch(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.entry(userID)
	e.online = true
	e.lastSeen = time.Now()
}

func (p *PresenceTracker) IsStale(userID uuid.UUID, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[userID]
	if !ok {
		return true
	}
	return now.Sub(e.lastSeen) > p.window
}

// SweepStale flips every entry whose lastSeen exceeds the staleness window
// to offline and returns the users newly marked offline, so the caller may
// broadcast updated presence.
func (p *PresenceTracker) SweepStale(now time.Time) []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()

	var flipped []uuid.UUID
	for userID, e := range p.entries {
		if e.online && now.Sub(e.lastSeen) > p.window {
			e.online = false
			flipped = append(flipped, userID)
		}
	}
	if len(flipped) > 0 {
		log.Printf("[PRESENCE] Sweep marked %d stale user(s) offline", len(flipped))
	}
	return flipped
}

// Online returns the users currently online. An entry whose lastSeen has
// fallen outside the staleness window never reports online, even between
// sweeps.
func (p *PresenceTracker) Online(now time.Time) []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()

	var online []uuid.UUID
	for userID, e := range p.entries {
		if e.online && now.Sub(e.lastSeen) <= p.window {
			online = append(online, userID)
		}
	}
	return online
}

// LastSeen reports the user's last activity timestamp and whether the user
// is known to the tracker at all.
func (p *PresenceTracker) LastSeen(userID uuid.UUID) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[userID]
	if !ok {
		return time.Time{}, false
	}
	return e.lastSeen, true
}
