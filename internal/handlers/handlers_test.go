package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diligencias582/TRABAJAI/internal/chat"
	"github.com/diligencias582/TRABAJAI/internal/models"
	"github.com/diligencias582/TRABAJAI/internal/store"
)

// fakeDB implements the slice of store.DataStore the handlers under test
// touch; the embedded interface panics on anything unexpected.
type fakeDB struct {
	store.DataStore

	rooms        map[uuid.UUID]*models.Room
	participants map[uuid.UUID]map[string]*models.Participant
	messages     map[uuid.UUID][]models.Message
	jobs         map[uuid.UUID]*models.Job
	candidates   []models.Candidate
	matches      []models.Match

	upsertCalls int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		rooms:        make(map[uuid.UUID]*models.Room),
		participants: make(map[uuid.UUID]map[string]*models.Participant),
		messages:     make(map[uuid.UUID][]models.Message),
		jobs:         make(map[uuid.UUID]*models.Job),
	}
}

func (f *fakeDB) Ping(context.Context) error { return nil }

// CreateRoom mirrors the store contract: initial participants get offline
// membership records as part of room creation.
func (f *fakeDB) CreateRoom(_ context.Context, room *models.Room) error {
	cp := *room
	f.rooms[room.ID] = &cp
	members := make(map[string]*models.Participant)
	for _, userID := range room.Participants {
		members[userID] = &models.Participant{
			UserID:   userID,
			RoomID:   room.ID,
			JoinedAt: room.CreatedAt,
			LastSeen: room.CreatedAt,
			Online:   false,
			Role:     models.RoleParticipant,
		}
	}
	f.participants[room.ID] = members
	return nil
}

func (f *fakeDB) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	return f.rooms[id], nil
}

func (f *fakeDB) UpdateRoomPreview(_ context.Context, id uuid.UUID, preview string, at time.Time) error {
	if room := f.rooms[id]; room != nil {
		room.LastMessage = preview
		room.LastActivity = at
	}
	return nil
}

func (f *fakeDB) UpsertParticipant(_ context.Context, p *models.Participant) error {
	f.upsertCalls++
	room := f.participants[p.RoomID]
	if room == nil {
		room = make(map[string]*models.Participant)
		f.participants[p.RoomID] = room
	}
	cp := *p
	room[p.UserID] = &cp
	return nil
}

func (f *fakeDB) RemoveParticipant(_ context.Context, roomID uuid.UUID, userID string) error {
	delete(f.participants[roomID], userID)
	return nil
}

func (f *fakeDB) ListParticipants(_ context.Context, roomID uuid.UUID) ([]models.Participant, error) {
	var out []models.Participant
	for _, p := range f.participants[roomID] {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeDB) ListUserRoomIDs(_ context.Context, userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for roomID, members := range f.participants {
		if _, ok := members[userID]; ok {
			ids = append(ids, roomID)
		}
	}
	return ids, nil
}

func (f *fakeDB) SetPresence(_ context.Context, roomID uuid.UUID, userID string, online bool, lastSeen time.Time) error {
	if p := f.participants[roomID][userID]; p != nil {
		p.Online = online
		p.LastSeen = lastSeen
	}
	return nil
}

func (f *fakeDB) AppendMessage(_ context.Context, msg *models.Message) error {
	f.messages[msg.RoomID] = append(f.messages[msg.RoomID], *msg)
	return nil
}

func (f *fakeDB) GetMessage(_ context.Context, id string) (*models.Message, error) {
	for _, msgs := range f.messages {
		for i := range msgs {
			if msgs[i].ID == id {
				return &msgs[i], nil
			}
		}
	}
	return nil, nil
}

func (f *fakeDB) UpdateReactions(_ context.Context, id string, reactions map[string][]string) error {
	for roomID, msgs := range f.messages {
		for i := range msgs {
			if msgs[i].ID == id {
				f.messages[roomID][i].Reactions = reactions
				return nil
			}
		}
	}
	return store.ErrNotFound
}

// PageMessages mirrors the store contract: window by recency, return
// oldest-first within the window.
func (f *fakeDB) PageMessages(_ context.Context, roomID uuid.UUID, limit, offset int) ([]models.Message, error) {
	msgs := f.messages[roomID]
	n := len(msgs)
	hi := n - offset
	if hi < 0 {
		hi = 0
	}
	lo := hi - limit
	if lo < 0 {
		lo = 0
	}
	out := make([]models.Message, hi-lo)
	copy(out, msgs[lo:hi])
	return out, nil
}

func (f *fakeDB) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	return f.jobs[id], nil
}

func (f *fakeDB) ListCandidatesByNiche(_ context.Context, niche models.Niche) ([]models.Candidate, error) {
	var out []models.Candidate
	for _, c := range f.candidates {
		if c.Niche == niche {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDB) InsertMatch(_ context.Context, m *models.Match) error {
	f.matches = append(f.matches, *m)
	return nil
}

// scriptedScorer returns a fixed score per candidate ID.
type scriptedScorer struct {
	scores map[uuid.UUID]float64
}

func (s *scriptedScorer) Score(_ context.Context, c *models.Candidate, j *models.Job) *models.Match {
	return &models.Match{
		ID:           uuid.New(),
		CandidateID:  c.ID,
		JobID:        j.ID,
		OverallScore: s.scores[c.ID],
		CreatedAt:    time.Now(),
	}
}

func newTestHandler(f *fakeDB, scorer *scriptedScorer) *Handler {
	hub := chat.NewHub(zerolog.Nop())
	gateway := chat.NewGateway(zerolog.Nop(), f, nil, hub)
	var s = scorer
	if s == nil {
		s = &scriptedScorer{}
	}
	return NewHandler(zerolog.Nop(), f, nil, gateway, s)
}

// request builds an http request with chi URL params attached.
func request(method, target string, body []byte, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("response body: %v", err)
	}
}

func TestCreateRoomSeedsOfflineParticipants(t *testing.T) {
	f := newFakeDB()
	h := newTestHandler(f, nil)

	body := []byte(`{"name":"Test","room_type":"custom","participants":["u1","u2"]}`)
	rec := httptest.NewRecorder()
	h.CreateRoom(rec, request(http.MethodPost, "/chat/rooms", body, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	decodeBody(t, rec, &resp)
	roomID, err := uuid.Parse(resp["room_id"])
	if err != nil {
		t.Fatalf("room_id not a uuid: %v", err)
	}

	members := f.participants[roomID]
	if len(members) != 2 {
		t.Fatalf("expected 2 participant records, got %d", len(members))
	}
	for userID, p := range members {
		if p.Online {
			t.Fatalf("initial participant %s must be offline", userID)
		}
	}
	// Seeding happens inside CreateRoom; the handler must not write the
	// records a second time.
	if f.upsertCalls != 0 {
		t.Fatalf("expected no handler-side upserts, got %d", f.upsertCalls)
	}
}

func TestCreateRoomRejectsBadKind(t *testing.T) {
	h := newTestHandler(newFakeDB(), nil)

	body := []byte(`{"name":"Test","room_type":"dungeon"}`)
	rec := httptest.NewRecorder()
	h.CreateRoom(rec, request(http.MethodPost, "/chat/rooms", body, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRoomMessagesWindowAndOrder(t *testing.T) {
	f := newFakeDB()
	roomID := uuid.New()
	f.rooms[roomID] = &models.Room{ID: roomID, Active: true}
	for i := 0; i < 5; i++ {
		f.messages[roomID] = append(f.messages[roomID], models.Message{
			ID: string(rune('a' + i)), RoomID: roomID, Body: string(rune('a' + i)),
		})
	}
	h := newTestHandler(f, nil)

	rec := httptest.NewRecorder()
	h.RoomMessages(rec, request(http.MethodGet, "/chat/messages/x?limit=2", nil, map[string]string{"room_id": roomID.String()}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(resp.Messages))
	}
	// Most recent window, oldest-first within it.
	if resp.Messages[0].Body != "d" || resp.Messages[1].Body != "e" {
		t.Fatalf("wrong window or order: %v, %v", resp.Messages[0].Body, resp.Messages[1].Body)
	}
}

func TestRoomMessagesUnknownRoom(t *testing.T) {
	h := newTestHandler(newFakeDB(), nil)

	rec := httptest.NewRecorder()
	h.RoomMessages(rec, request(http.MethodGet, "/chat/messages/x", nil, map[string]string{"room_id": uuid.NewString()}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRoomMessagesRejectsBadPaging(t *testing.T) {
	f := newFakeDB()
	roomID := uuid.New()
	f.rooms[roomID] = &models.Room{ID: roomID, Active: true}
	h := newTestHandler(f, nil)

	rec := httptest.NewRecorder()
	h.RoomMessages(rec, request(http.MethodGet, "/chat/messages/x?limit=-1", nil, map[string]string{"room_id": roomID.String()}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", rec.Code)
	}
}

func TestJoinRoomUnknownRoomIs404(t *testing.T) {
	h := newTestHandler(newFakeDB(), nil)

	rec := httptest.NewRecorder()
	h.JoinRoom(rec, request(http.MethodPost, "/chat/rooms/x/join?user_id=u1", nil, map[string]string{"id": uuid.NewString()}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLeaveRoomNeverJoinedIsOK(t *testing.T) {
	f := newFakeDB()
	roomID := uuid.New()
	f.rooms[roomID] = &models.Room{ID: roomID, Active: true}
	h := newTestHandler(f, nil)

	rec := httptest.NewRecorder()
	h.LeaveRoom(rec, request(http.MethodDelete, "/chat/rooms/x/leave?user_id=ghost", nil, map[string]string{"id": roomID.String()}))

	if rec.Code != http.StatusOK {
		t.Fatalf("leave of absent membership should be a 200 no-op, got %d", rec.Code)
	}
}

func TestGenerateMatchesSortsByScore(t *testing.T) {
	f := newFakeDB()
	job := &models.Job{ID: uuid.New(), Title: "Backend", Niche: models.NicheTech}
	f.jobs[job.ID] = job

	low := models.Candidate{ID: uuid.New(), Niche: models.NicheTech}
	high := models.Candidate{ID: uuid.New(), Niche: models.NicheTech}
	other := models.Candidate{ID: uuid.New(), Niche: models.NicheSales}
	f.candidates = []models.Candidate{low, high, other}

	scorer := &scriptedScorer{scores: map[uuid.UUID]float64{low.ID: 40, high.ID: 90}}
	h := newTestHandler(f, scorer)

	rec := httptest.NewRecorder()
	h.GenerateMatches(rec, request(http.MethodPost, "/api/matches/generate/x", nil, map[string]string{"job_id": job.ID.String()}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Matches []models.Match `json:"matches"`
	}
	decodeBody(t, rec, &resp)

	if len(resp.Matches) != 2 {
		t.Fatalf("only niche candidates should be scored, got %d matches", len(resp.Matches))
	}
	if !sort.SliceIsSorted(resp.Matches, func(i, j int) bool {
		return resp.Matches[i].OverallScore > resp.Matches[j].OverallScore
	}) {
		t.Fatal("matches must be sorted best-first")
	}
	if resp.Matches[0].CandidateID != high.ID {
		t.Fatal("highest score should lead")
	}
	if len(f.matches) != 2 {
		t.Fatalf("matches should be persisted, got %d", len(f.matches))
	}
}

func TestGenerateMatchesUnknownJob(t *testing.T) {
	h := newTestHandler(newFakeDB(), nil)

	rec := httptest.NewRecorder()
	h.GenerateMatches(rec, request(http.MethodPost, "/api/matches/generate/x", nil, map[string]string{"job_id": uuid.NewString()}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateCandidateValidation(t *testing.T) {
	h := newTestHandler(newFakeDB(), nil)

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"niche":"tech","experience_level":"senior"}`},
		{"bad niche", `{"name":"Ada","niche":"alchemy","experience_level":"senior"}`},
		{"bad level", `{"name":"Ada","niche":"tech","experience_level":"wizard"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.CreateCandidate(rec, request(http.MethodPost, "/api/candidates", []byte(tc.body), nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestHealthHealthy(t *testing.T) {
	h := newTestHandler(newFakeDB(), nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "healthy" {
		t.Fatalf("expected healthy, got %s", resp.Status)
	}
	if resp.Checks["database"].Status != "pass" {
		t.Fatal("database check should pass")
	}
}
