package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nevojt/company-chat/database"
	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
)

type sqlBanRepo struct {
	db database.TxQuerier
}

// NewSQLBanRepo, BanRepository'nin sqlx implementasyonunu oluşturur.
func NewSQLBanRepo(db database.TxQuerier) BanRepository {
	return &sqlBanRepo{db: db}
}

func (r *sqlBanRepo) Create(ctx context.Context, ban *models.Ban) error {
	if !ban.EndTime.After(ban.StartTime) {
		return fmt.Errorf("%w: ban must end after it starts", pkg.ErrBadRequest)
	}
	ban.StartTime = ban.StartTime.UTC()
	ban.EndTime = ban.EndTime.UTC()

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO bans (user_id, room_id, start_time, end_time)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		ban.UserID, ban.RoomID, ban.StartTime, ban.EndTime,
	).Scan(&ban.ID)
	if err != nil {
		return fmt.Errorf("failed to create ban: %w", err)
	}
	return nil
}

// GetLatest, zaman karşılaştırmasını SQL'e değil Go'ya bırakır:
// SQLite zamanları metin saklar ve DB tarafında karşılaştırma format'a bağlıdır.
func (r *sqlBanRepo) GetLatest(ctx context.Context, userID, roomID int64) (*models.Ban, error) {
	var ban models.Ban
	err := sqlx.GetContext(ctx, r.db, &ban, r.db.Rebind(`
		SELECT id, user_id, room_id, start_time, end_time
		FROM bans
		WHERE user_id = ? AND room_id = ?
		ORDER BY end_time DESC, id DESC
		LIMIT 1`), userID, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ban: %w", err)
	}
	return &ban, nil
}

func (r *sqlBanRepo) DeleteExpired(ctx context.Context, userID, roomID int64, now time.Time) (int64, error) {
	var bans []models.Ban
	if err := sqlx.SelectContext(ctx, r.db, &bans, r.db.Rebind(`
		SELECT id, user_id, room_id, start_time, end_time
		FROM bans WHERE user_id = ? AND room_id = ?`), userID, roomID); err != nil {
		return 0, fmt.Errorf("failed to list bans: %w", err)
	}

	var deleted int64
	for _, ban := range bans {
		if ban.Active(now) {
			continue
		}
		if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM bans WHERE id = ?`), ban.ID); err != nil {
			return deleted, fmt.Errorf("failed to delete expired ban: %w", err)
		}
		deleted++
	}
	return deleted, nil
}

func (r *sqlBanRepo) Delete(ctx context.Context, userID, roomID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM bans WHERE user_id = ? AND room_id = ?`), userID, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete bans: %w", err)
	}
	return nil
}
