package repository

import (
	"context"

	"github.com/Nevojt/company-chat/models"
)

// VoteRepository, (kullanıcı, mesaj) başına tek oy satırını yönetir.
type VoteRepository interface {
	Get(ctx context.Context, userID, messageID int64) (*models.Vote, error)
	Create(ctx context.Context, vote *models.Vote) error
	Delete(ctx context.Context, userID, messageID int64) error
	// DeleteByMessage, mesajdaki tüm oyları siler (tombstone cascade).
	DeleteByMessage(ctx context.Context, messageID int64) (int64, error)
}
