package repository

import (
	"context"
	"time"

	"github.com/Nevojt/company-chat/models"
)

// UserStatusRepository, kullanıcının bulunduğu oda ve online bayrağı.
type UserStatusRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.UserStatus, error)
	Create(ctx context.Context, status *models.UserStatus) error
	Update(ctx context.Context, status *models.UserStatus) error
	// ListOnlineInRoom, odada online işaretli kullanıcıları döner.
	ListOnlineInRoom(ctx context.Context, roomID int64) ([]models.UserStatus, error)
}

// OnlineTimeRepository, oturum aralıkları ve toplam çevrimiçi süre.
type OnlineTimeRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.OnlineTime, error)
	Create(ctx context.Context, userID int64, start time.Time) error
	Open(ctx context.Context, userID int64, start time.Time) error
	Close(ctx context.Context, userID int64, end time.Time, addSeconds int64) error
}
