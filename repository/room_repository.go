package repository

import (
	"context"
	"time"

	"github.com/Nevojt/company-chat/models"
)

// RoomRepository, oda kayıtlarına erişim.
type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Room, error)
	GetByName(ctx context.Context, name string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	SetBlocked(ctx context.Context, id int64, blocked bool) error
	// ScheduleDeletion, odayı silinmek üzere işaretler; nil işareti kaldırır.
	ScheduleDeletion(ctx context.Context, id int64, at *time.Time) error
}
