package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/models"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"

	"github.com/google/uuid"
)

// roomClock is the per-room position source. Positions are createdAt
// nanoseconds aligned to whole microseconds, bumped on ties, so they are
// strictly increasing and unique within a room, visible to both push and
// pull paths, and survive the store's timestamptz resolution unchanged.
type roomClock struct {
	mu      sync.Mutex
	lastPos int64
}

// Coordinator reconciles the push path with the cursor-based pull path.
// Both share one position space per room: position == CreatedAt.UnixNano().
type Coordinator struct {
	mu       sync.RWMutex
	clocks   map[uuid.UUID]*roomClock
	store    repository.MessageRepo
	pageSize int
}

func NewCoordinator(store repository.MessageRepo, pageSize int) *Coordinator {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Coordinator{
		clocks:   make(map[uuid.UUID]*roomClock),
		store:    store,
		pageSize: pageSize,
	}
}

func (c *Coordinator) clock(roomID uuid.UUID) *roomClock {
	c.mu.RLock()
	cl, ok := c.clocks[roomID]
	c.mu.RUnlock()
	if ok {
		return cl
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok = c.clocks[roomID]; !ok {
		cl = &roomClock{}
		c.clocks[roomID] = cl
	}
	return cl
}

// StampNew assigns the next position in the room and returns it as the
// event's creation time. The assignment is globally visible before the
// caller persists or pushes anything, which is what keeps the dual-path
// protocol consistent. Positions are truncated to microseconds and ties
// bump by a full microsecond: Postgres stores timestamptz at microsecond
// resolution, and a sub-microsecond distinction would collapse on insert
// and break the strict greater-than cursor.
func (c *Coordinator) StampNew(roomID uuid.UUID, now time.Time) time.Time {
	cl := c.clock(roomID)
	cl.mu.Lock()
	defer cl.mu.Unlock()

	pos := now.Truncate(time.Microsecond).UnixNano()
	if pos <= cl.lastPos {
		pos = cl.lastPos + int64(time.Microsecond)
	}
	cl.lastPos = pos
	return time.Unix(0, pos).UTC()
}

// Register records an externally-created event (media upload path) under the
// room's position space. Called exactly once per event, before any push
// delivery of it.
func (c *Coordinator) Register(roomID uuid.UUID, pos int64) {
	cl := c.clock(roomID)
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if pos > cl.lastPos {
		cl.lastPos = pos
	}
}

// LastPosition returns the highest position assigned in the room so far.
func (c *Coordinator) LastPosition(roomID uuid.UUID) int64 {
	cl := c.clock(roomID)
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.lastPos
}

// Page is one pull-sync response: events in ascending position order, a
// cursor pointing at the last returned event, and whether more may follow.
type Page struct {
	Events  []*Event `json:"events"`
	HasMore bool     `json:"has_more"`
	Cursor  string   `json:"cursor"`
}

// FetchSince serves the pull path. An empty or unparsable cursor degrades to
// the most recent page in chronological order rather than erroring, so
// client clock or parsing trouble resolves to a safe resync. A valid cursor
// returns only events with position strictly greater than it.
func (c *Coordinator) FetchSince(ctx context.Context, roomID uuid.UUID, cursor string) (*Page, error) {
	var (
		messages []*models.Message
		hasMore  bool
		err      error
	)

	after, ok := parseCursor(cursor)
	if ok {
		messages, err = c.store.ListAfter(ctx, roomID, after, c.pageSize+1)
		if err != nil {
			return nil, err
		}
		if len(messages) > c.pageSize {
			messages = messages[:c.pageSize]
			hasMore = true
		}
	} else {
		if cursor != "" {
			log.Printf("[SYNC] Malformed cursor %q for room %s, falling back to recent page", cursor, roomID)
		}
		messages, err = c.store.ListRecent(ctx, roomID, c.pageSize)
		if err != nil {
			return nil, err
		}
		hasMore = len(messages) == c.pageSize
	}

	page := &Page{
		Events: make([]*Event, 0, len(messages)),
		Cursor: cursor,
	}
	page.HasMore = hasMore

	for _, m := range messages {
		if m.Deleted() {
			// Tombstones keep their slot but never leak content.
			m.Content = ""
		}
		page.Events = append(page.Events, messageEvent(m, nil))
	}

	if n := len(messages); n > 0 {
		page.Cursor = formatCursor(messages[n-1].CreatedAt)
	}

	return page, nil
}

func parseCursor(cursor string) (time.Time, bool) {
	if cursor == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, cursor)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
