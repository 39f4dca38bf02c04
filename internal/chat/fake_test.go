package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/models"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"

	"github.com/google/uuid"
)

type pairKey struct {
	messageID uuid.UUID
	userID    uuid.UUID
}

// fakeStore is an in-memory Gateway for hub and sync tests.
type fakeStore struct {
	mu        sync.Mutex
	messages  map[uuid.UUID]*models.Message
	rooms     map[uuid.UUID]*models.Room
	members   map[uuid.UUID]map[uuid.UUID]bool
	reactions map[pairKey]string
	reads     map[pairKey]bool
	users     map[uuid.UUID]*models.User

	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages:  make(map[uuid.UUID]*models.Message),
		rooms:     make(map[uuid.UUID]*models.Room),
		members:   make(map[uuid.UUID]map[uuid.UUID]bool),
		reactions: make(map[pairKey]string),
		reads:     make(map[pairKey]bool),
		users:     make(map[uuid.UUID]*models.User),
	}
}

var _ repository.Gateway = (*fakeStore)(nil)

func (f *fakeStore) addMember(roomID, userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[roomID] == nil {
		f.members[roomID] = make(map[uuid.UUID]bool)
	}
	f.members[roomID][userID] = true
}

func (f *fakeStore) dropMember(roomID, userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[roomID], userID)
}

func (f *fakeStore) Save(ctx context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *m
	f.messages[m.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) roomMessages(roomID uuid.UUID) []*models.Message {
	var out []*models.Message
	for _, m := range f.messages {
		if m.RoomID == roomID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (f *fakeStore) ListAfter(ctx context.Context, roomID uuid.UUID, after time.Time, limit int) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, m := range f.roomMessages(roomID) {
		if m.CreatedAt.After(after) {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.roomMessages(roomID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (f *fakeStore) SoftDelete(ctx context.Context, id, senderID uuid.UUID, at time.Time) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok || m.SenderID != senderID || m.Deleted() {
		return nil, repository.ErrNotFound
	}
	m.DeletedAt = &at
	m.Content = ""
	cp := *m
	return &cp, nil
}

func (f *fakeStore) Edit(ctx context.Context, id, senderID uuid.UUID, content string, at time.Time) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok || m.SenderID != senderID || m.Deleted() {
		return nil, repository.ErrNotFound
	}
	m.Content = content
	m.EditedAt = &at
	cp := *m
	return &cp, nil
}

func (f *fakeStore) Create(ctx context.Context, room *models.Room, memberIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *room
	f.rooms[room.ID] = &cp
	if f.members[room.ID] == nil {
		f.members[room.ID] = make(map[uuid.UUID]bool)
	}
	for _, id := range memberIDs {
		f.members[room.ID][id] = true
	}
	return nil
}

func (f *fakeStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) FindPrivateRoom(ctx context.Context, a, b uuid.UUID) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.rooms {
		if r.Kind == models.RoomPrivate && f.members[id][a] && f.members[id][b] {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[roomID][userID], nil
}

func (f *fakeStore) ListMembers(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uuid.UUID
	for id := range f.members[roomID] {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeStore) AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.MemberRole) error {
	f.addMember(roomID, userID)
	return nil
}

func (f *fakeStore) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.members[roomID][userID] {
		return repository.ErrNotFound
	}
	delete(f.members[roomID], userID)
	return nil
}

func (f *fakeStore) Toggle(ctx context.Context, messageID, userID uuid.UUID, kind string) (models.ReactionOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey{messageID, userID}
	current, ok := f.reactions[key]
	switch {
	case !ok:
		f.reactions[key] = kind
		return models.ReactionAdded, nil
	case current == kind:
		delete(f.reactions, key)
		return models.ReactionRemoved, nil
	default:
		f.reactions[key] = kind
		return models.ReactionUpdated, nil
	}
}

func (f *fakeStore) ListForMessage(ctx context.Context, messageID uuid.UUID) ([]*models.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Reaction
	for key, kind := range f.reactions {
		if key.messageID == messageID {
			out = append(out, &models.Reaction{MessageID: key.messageID, UserID: key.userID, Kind: kind})
		}
	}
	return out, nil
}

func (f *fakeStore) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[pairKey{messageID, userID}] = true
	return nil
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeSub is a Subscriber that records deliveries.
type fakeSub struct {
	userID uuid.UUID
	roomID uuid.UUID

	mu     sync.Mutex
	events []*Event
	reject bool
	closed bool
}

func (s *fakeSub) UserID() uuid.UUID { return s.userID }
func (s *fakeSub) RoomID() uuid.UUID { return s.roomID }

func (s *fakeSub) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSub) wasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSub) Deliver(ev *Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func (s *fakeSub) delivered() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

func newTestHub(store repository.Gateway) *Hub {
	return NewHub(store, NewRoomDirectory(store), NewCoordinator(store, 50), NewPresenceTracker(30*time.Second))
}
