package repository

import (
	"context"

	"github.com/Nevojt/company-chat/models"
)

// UserRepository, kullanıcı kayıtlarına erişim.
// Kullanıcılar dış auth servisiyle paylaşılır; chat motoru sadece okur.
// Create, CLI ve testler içindir.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}
