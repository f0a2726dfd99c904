package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
)

// RoomReader, oda okuma (repository.Store).
type RoomReader interface {
	GetRoomByID(ctx context.Context, id int64) (*models.Room, error)
}

// PresenceReader, odadaki canlı bağlantılar (ws.Hub).
type PresenceReader interface {
	PresenceSnapshot(roomID int64) []models.ActiveUser
}

// HistoryReader, oda geçmişi (services.MessageService).
type HistoryReader interface {
	History(ctx context.Context, roomID int64, limit int) ([]models.Envelope, error)
}

// RoomHandler, oda durumunu HTTP üzerinden okuyan endpoint'ler.
type RoomHandler struct {
	rooms        RoomReader
	presence     PresenceReader
	history      HistoryReader
	defaultLimit int
}

// NewRoomHandler, constructor. defaultLimit, ?limit= verilmezse kullanılır.
func NewRoomHandler(rooms RoomReader, presence PresenceReader, history HistoryReader, defaultLimit int) *RoomHandler {
	return &RoomHandler{
		rooms:        rooms,
		presence:     presence,
		history:      history,
		defaultLimit: defaultLimit,
	}
}

// Online, odada şu an bağlı kullanıcıları döner.
//
// GET /api/rooms/{id}/online
// Response: { "success": true, "data": [ { "user_id": 1, "user_name": "alice", ... } ] }
func (h *RoomHandler) Online(w http.ResponseWriter, r *http.Request) {
	room, ok := h.loadRoom(w, r)
	if !ok {
		return
	}

	pkg.JSON(w, http.StatusOK, h.presence.PresenceSnapshot(room.ID))
}

// Messages, odanın son mesajlarını kronolojik sırayla döner.
//
// GET /api/rooms/{id}/messages?limit=50
func (h *RoomHandler) Messages(w http.ResponseWriter, r *http.Request) {
	room, ok := h.loadRoom(w, r)
	if !ok {
		return
	}

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	msgs, err := h.history.History(r.Context(), room.ID, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, msgs)
}

// loadRoom, path'teki odayı çözer. Bloklu odayı sadece admin okuyabilir.
func (h *RoomHandler) loadRoom(w http.ResponseWriter, r *http.Request) (*models.Room, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid room id")
		return nil, false
	}

	room, err := h.rooms.GetRoomByID(r.Context(), id)
	if err != nil {
		pkg.Error(w, err)
		return nil, false
	}

	if room.Blocked && !user.IsAdmin() {
		pkg.Error(w, fmt.Errorf("%w: room is blocked", pkg.ErrPolicyBlocked))
		return nil, false
	}

	return room, true
}
