package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/chat"
	"github.com/saparbayev-azizbek-12/chat-app/internal/middleware"
	"github.com/saparbayev-azizbek-12/chat-app/internal/models"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// stubGateway implements the slice of repository.Gateway these handlers
// reach. Anything else panics, which is a test bug.
type stubGateway struct {
	repository.Gateway

	messages map[uuid.UUID]*models.Message
	members  map[uuid.UUID]map[uuid.UUID]bool
	saveErr  error
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		messages: make(map[uuid.UUID]*models.Message),
		members:  make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (s *stubGateway) addMember(roomID, userID uuid.UUID) {
	if s.members[roomID] == nil {
		s.members[roomID] = make(map[uuid.UUID]bool)
	}
	s.members[roomID][userID] = true
}

func (s *stubGateway) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	return s.members[roomID][userID], nil
}

func (s *stubGateway) Save(ctx context.Context, m *models.Message) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *stubGateway) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *stubGateway) sorted(roomID uuid.UUID) []*models.Message {
	var out []*models.Message
	for _, m := range s.messages {
		if m.RoomID == roomID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *stubGateway) ListAfter(ctx context.Context, roomID uuid.UUID, after time.Time, limit int) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range s.sorted(roomID) {
		if m.CreatedAt.After(after) && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubGateway) ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.Message, error) {
	all := s.sorted(roomID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *stubGateway) SoftDelete(ctx context.Context, id, senderID uuid.UUID, at time.Time) (*models.Message, error) {
	m, ok := s.messages[id]
	if !ok || m.SenderID != senderID || m.Deleted() {
		return nil, repository.ErrNotFound
	}
	m.DeletedAt = &at
	m.Content = ""
	cp := *m
	return &cp, nil
}

func (s *stubGateway) Edit(ctx context.Context, id, senderID uuid.UUID, content string, at time.Time) (*models.Message, error) {
	m, ok := s.messages[id]
	if !ok || m.SenderID != senderID || m.Deleted() {
		return nil, repository.ErrNotFound
	}
	m.Content = content
	m.EditedAt = &at
	cp := *m
	return &cp, nil
}

func (s *stubGateway) Toggle(ctx context.Context, messageID, userID uuid.UUID, kind string) (models.ReactionOutcome, error) {
	return models.ReactionAdded, nil
}

func (s *stubGateway) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	return nil
}

func newAPITestHub(store repository.Gateway) *chat.Hub {
	return chat.NewHub(store,
		chat.NewRoomDirectory(store),
		chat.NewCoordinator(store, 50),
		chat.NewPresenceTracker(30*time.Second))
}

func authedRequest(t *testing.T, method, target string, body []byte, user *models.User, vars map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	return mux.SetURLVars(req, vars)
}

func TestSendMessageHandler(t *testing.T) {
	store := newStubGateway()
	hub := newAPITestHub(store)
	roomID := uuid.New()
	alice := &models.User{ID: uuid.New(), Username: "alice"}
	store.addMember(roomID, alice.ID)

	handler := SendMessageHandler(hub)
	vars := map[string]string{"roomID": roomID.String()}

	body, _ := json.Marshal(map[string]string{"content": "hello"})
	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodPost, "/api/rooms/x/messages", body, alice, vars))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201: %s", rec.Code, rec.Body)
	}

	var msg models.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg.Content != "hello" || msg.SenderID != alice.ID {
		t.Errorf("unexpected message: %+v", msg)
	}

	// Empty content maps to 400.
	body, _ = json.Marshal(map[string]string{"content": "   "})
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodPost, "/api/rooms/x/messages", body, alice, vars))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty content: status %d, want 400", rec.Code)
	}

	// Non-member maps to 403.
	mallory := &models.User{ID: uuid.New(), Username: "mallory"}
	body, _ = json.Marshal(map[string]string{"content": "hi"})
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodPost, "/api/rooms/x/messages", body, mallory, vars))
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-member: status %d, want 403", rec.Code)
	}
}

func TestPullMessagesHandler(t *testing.T) {
	store := newStubGateway()
	hub := newAPITestHub(store)
	roomID := uuid.New()
	alice := &models.User{ID: uuid.New(), Username: "alice"}
	store.addMember(roomID, alice.ID)

	ctx := context.Background()
	var ids []uuid.UUID
	for _, text := range []string{"one", "two", "three"} {
		msg, err := hub.SendText(ctx, alice, roomID, text, nil)
		if err != nil {
			t.Fatalf("seed %q: %v", text, err)
		}
		ids = append(ids, msg.ID)
	}

	handler := PullMessagesHandler(hub)
	vars := map[string]string{"roomID": roomID.String()}

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodGet, "/api/rooms/x/messages", nil, alice, vars))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body)
	}

	var page chat.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(page.Events))
	}
	for i, ev := range page.Events {
		if ev.Message.ID != ids[i] {
			t.Errorf("order diverges at %d", i)
		}
	}
	if page.Cursor == "" {
		t.Error("page carries no cursor")
	}

	// Resuming from the returned cursor yields nothing new.
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodGet, "/api/rooms/x/messages?cursor="+page.Cursor, nil, alice, vars))
	if rec.Code != http.StatusOK {
		t.Fatalf("resume status %d: %s", rec.Code, rec.Body)
	}
	var next chat.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &next); err != nil {
		t.Fatalf("decode resume page: %v", err)
	}
	if len(next.Events) != 0 {
		t.Errorf("resume replayed %d events", len(next.Events))
	}

	// Non-member gets 403, not an empty page.
	mallory := &models.User{ID: uuid.New(), Username: "mallory"}
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodGet, "/api/rooms/x/messages", nil, mallory, vars))
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-member: status %d, want 403", rec.Code)
	}
}

func TestDeleteMessageHandlerStatusMapping(t *testing.T) {
	store := newStubGateway()
	hub := newAPITestHub(store)
	roomID := uuid.New()
	alice := &models.User{ID: uuid.New(), Username: "alice"}
	bob := &models.User{ID: uuid.New(), Username: "bob"}
	store.addMember(roomID, alice.ID)
	store.addMember(roomID, bob.ID)

	msg, err := hub.SendText(context.Background(), alice, roomID, "target", nil)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	handler := DeleteMessageHandler(hub)

	cases := []struct {
		name string
		user *models.User
		id   string
		want int
	}{
		{"foreign message", bob, msg.ID.String(), http.StatusForbidden},
		{"unknown message", alice, uuid.NewString(), http.StatusNotFound},
		{"bad id", alice, "not-a-uuid", http.StatusBadRequest},
		{"own message", alice, msg.ID.String(), http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := authedRequest(t, http.MethodDelete, "/api/rooms/x/messages/y", nil, tc.user, map[string]string{"messageID": tc.id})
		handler(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestReactHandler(t *testing.T) {
	store := newStubGateway()
	hub := newAPITestHub(store)
	roomID := uuid.New()
	alice := &models.User{ID: uuid.New(), Username: "alice"}
	store.addMember(roomID, alice.ID)

	msg, err := hub.SendText(context.Background(), alice, roomID, "react", nil)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"reaction": "👍"})
	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/rooms/x/messages/y/reactions", body, alice, map[string]string{"messageID": msg.ID.String()})
	ReactHandler(hub)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Success bool   `json:"success"`
		Action  string `json:"action"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Action != string(models.ReactionAdded) {
		t.Errorf("unexpected response: %+v", resp)
	}
}
