package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
)

type stubRooms map[int64]*models.Room

func (s stubRooms) GetRoomByID(_ context.Context, id int64) (*models.Room, error) {
	room, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: room %d", pkg.ErrNotFound, id)
	}
	return room, nil
}

type stubPresence []models.ActiveUser

func (s stubPresence) PresenceSnapshot(int64) []models.ActiveUser { return s }

type stubHistory struct {
	gotLimit int
	err      error
}

func (s *stubHistory) History(_ context.Context, roomID int64, limit int) ([]models.Envelope, error) {
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	text := "hi"
	return []models.Envelope{{ID: 1, RoomID: roomID, Message: &text}}, nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func serveRoom(t *testing.T, h *RoomHandler, user *models.User, target string) (int, apiResponse) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms/{id}/online", h.Online)
	mux.HandleFunc("GET /api/rooms/{id}/messages", h.Messages)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != nil {
		req = req.WithContext(WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestRoomHandler(t *testing.T) {
	rooms := stubRooms{
		1: {ID: 1, Name: "lobby"},
		2: {ID: 2, Name: "jail", Blocked: true},
	}
	presence := stubPresence{{UserID: 7, UserName: "alice"}}
	alice := &models.User{ID: 7, UserName: "alice", Role: models.RoleUser}
	admin := &models.User{ID: 1, UserName: "root", Role: models.RoleAdmin}

	tests := []struct {
		name      string
		user      *models.User
		target    string
		wantCode  int
		wantLimit int
	}{
		{"online", alice, "/api/rooms/1/online", http.StatusOK, 0},
		{"messages default limit", alice, "/api/rooms/1/messages", http.StatusOK, 20},
		{"messages explicit limit", alice, "/api/rooms/1/messages?limit=5", http.StatusOK, 5},
		{"bad limit", alice, "/api/rooms/1/messages?limit=zero", http.StatusBadRequest, 0},
		{"negative limit", alice, "/api/rooms/1/messages?limit=-3", http.StatusBadRequest, 0},
		{"bad room id", alice, "/api/rooms/abc/online", http.StatusBadRequest, 0},
		{"unknown room", alice, "/api/rooms/99/online", http.StatusNotFound, 0},
		{"blocked room", alice, "/api/rooms/2/messages", http.StatusForbidden, 0},
		{"blocked room admin", admin, "/api/rooms/2/messages", http.StatusOK, 20},
		{"no user in context", nil, "/api/rooms/1/online", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := &stubHistory{}
			h := NewRoomHandler(rooms, presence, history, 20)

			code, resp := serveRoom(t, h, tt.user, tt.target)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCode == http.StatusOK, resp.Success)
			assert.Equal(t, tt.wantLimit, history.gotLimit)
		})
	}
}

func TestRoomHandler_OnlineBody(t *testing.T) {
	h := NewRoomHandler(stubRooms{1: {ID: 1}}, stubPresence{{UserID: 7, UserName: "alice"}}, &stubHistory{}, 20)

	_, resp := serveRoom(t, h, &models.User{ID: 7}, "/api/rooms/1/online")

	var users []models.ActiveUser
	require.NoError(t, json.Unmarshal(resp.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].UserName)
}

func TestRoomHandler_HistoryFailureHidesDetails(t *testing.T) {
	history := &stubHistory{err: fmt.Errorf("%w: disk on fire", pkg.ErrStoreFailure)}
	h := NewRoomHandler(stubRooms{1: {ID: 1}}, stubPresence{}, history, 20)

	code, resp := serveRoom(t, h, &models.User{ID: 7}, "/api/rooms/1/messages")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", resp.Error)
}

type stubCounter int

func (c stubCounter) ConnectionCount() int { return int(c) }

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
		wantDB   string
	}{
		{"healthy", nil, http.StatusOK, "ok"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(stubCounter(3), stubPinger{err: tt.pingErr})
			rec := httptest.NewRecorder()
			h.Check(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			var resp apiResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			var status HealthStatus
			require.NoError(t, json.Unmarshal(resp.Data, &status))
			assert.Equal(t, tt.wantDB, status.Database)
			assert.Equal(t, 3, status.Connections)
		})
	}
}
