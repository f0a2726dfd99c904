package repository

import (
	"context"
	"time"

	"github.com/Nevojt/company-chat/models"
)

// MessageRepository, mesaj satırları üzerindeki tipli operasyonlar.
//
// Okuma metodları her zaman gönderici snapshot'ı (LEFT JOIN users) ve
// oy toplamı (LEFT JOIN votes) ile birlikte döner.
type MessageRepository interface {
	// Insert, yeni mesajı yazar ve id'sini döner.
	Insert(ctx context.Context, msg *models.NewMessage, createdAt time.Time) (int64, error)

	// GetByID, tek bir mesajı döner. Yoksa ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Message, error)

	// ListRecent, odanın en yeni limit adet mesajını yeniden eskiye sıralı döner.
	ListRecent(ctx context.Context, roomID int64, limit int) ([]models.Message, error)

	// UpdateBody, gövdeyi değiştirir ve edited=true yapar.
	UpdateBody(ctx context.Context, id int64, body *string) error

	// Tombstone, gövde/medya/yanıt referansını temizler ve deleted=true yapar.
	Tombstone(ctx context.Context, id int64) error

	// CountByRoom, odadaki toplam mesaj sayısı (silinmişler dahil).
	CountByRoom(ctx context.Context, roomID int64) (int, error)
}
