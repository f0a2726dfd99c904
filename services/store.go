package services

import (
	"context"
	"time"

	"github.com/Nevojt/company-chat/models"
)

// Service'lerin ihtiyaç duyduğu store yüzeyleri.
//
// Hepsi *repository.Store tarafından karşılanır; her service sadece kullandığı
// metodları görür. Testlerde SQLite üzerinde gerçek Store kullanılır.

// RoomStore, oda okuma.
type RoomStore interface {
	GetRoomByID(ctx context.Context, id int64) (*models.Room, error)
}

// UserStore, kullanıcı okuma.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// MessageStore, mesaj yaşam döngüsü operasyonları.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.NewMessage, now time.Time) (*models.Message, error)
	FetchRecent(ctx context.Context, roomID int64, limit int) ([]models.Message, error)
	FetchOne(ctx context.Context, id int64) (*models.Message, error)
	CountMessages(ctx context.Context, roomID int64) (int, error)
	EditMessage(ctx context.Context, id, callerID int64, body *string) (*models.Message, error)
	SoftDeleteMessage(ctx context.Context, id, callerID int64) (*models.Message, error)
	ToggleVote(ctx context.Context, messageID, userID int64, dir int) (*models.Message, models.VoteResult, error)
}

// BanStore, aktif ban çözümlemesi (lazy expiry dahil).
type BanStore interface {
	GetActiveBan(ctx context.Context, userID, roomID int64, now time.Time) (*models.Ban, error)
}

// SessionStore, status ve online süre kayıtları.
type SessionStore interface {
	GetOrCreateUserStatus(ctx context.Context, user *models.User, roomID *int64, roomName string) (*models.UserStatus, error)
	UpdateUserStatus(ctx context.Context, userID int64, roomID *int64, roomName string, online bool) error
	StartSession(ctx context.Context, userID int64, now time.Time) error
	EndSession(ctx context.Context, userID int64, now time.Time) (time.Duration, error)
}
