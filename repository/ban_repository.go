package repository

import (
	"context"
	"time"

	"github.com/Nevojt/company-chat/models"
)

// BanRepository, oda bazlı ban kayıtları. Tüm operasyonlar (kullanıcı, oda) scoped.
type BanRepository interface {
	Create(ctx context.Context, ban *models.Ban) error

	// GetLatest, çift için bitişi en geç olan ban'ı döner. Yoksa ErrNotFound.
	GetLatest(ctx context.Context, userID, roomID int64) (*models.Ban, error)

	// DeleteExpired, çiftin bitişi now'dan önce olan tüm ban'larını siler.
	DeleteExpired(ctx context.Context, userID, roomID int64, now time.Time) (int64, error)

	// Delete, çiftin tüm ban'larını siler (unban).
	Delete(ctx context.Context, userID, roomID int64) error
}
