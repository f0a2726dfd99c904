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

type sqlUserStatusRepo struct {
	db database.TxQuerier
}

// NewSQLUserStatusRepo, UserStatusRepository'nin sqlx implementasyonunu oluşturur.
func NewSQLUserStatusRepo(db database.TxQuerier) UserStatusRepository {
	return &sqlUserStatusRepo{db: db}
}

const statusColumns = `id, user_id, room_id, name_room, user_name, status, updated_at`

func (r *sqlUserStatusRepo) GetByUserID(ctx context.Context, userID int64) (*models.UserStatus, error) {
	var status models.UserStatus
	err := sqlx.GetContext(ctx, r.db, &status,
		r.db.Rebind(`SELECT `+statusColumns+` FROM user_status WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: status for user %d", pkg.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user status: %w", err)
	}
	return &status, nil
}

func (r *sqlUserStatusRepo) Create(ctx context.Context, status *models.UserStatus) error {
	status.UpdatedAt = time.Now().UTC()
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO user_status (user_id, room_id, name_room, user_name, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		status.UserID, status.RoomID, status.RoomName, status.UserName, status.Online, status.UpdatedAt,
	).Scan(&status.ID)
	if err != nil {
		return fmt.Errorf("failed to create user status: %w", err)
	}
	return nil
}

func (r *sqlUserStatusRepo) Update(ctx context.Context, status *models.UserStatus) error {
	status.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE user_status
		SET room_id = ?, name_room = ?, user_name = ?, status = ?, updated_at = ?
		WHERE user_id = ?`),
		status.RoomID, status.RoomName, status.UserName, status.Online, status.UpdatedAt, status.UserID)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return requireAffected(res, "user status", status.UserID)
}

func (r *sqlUserStatusRepo) ListOnlineInRoom(ctx context.Context, roomID int64) ([]models.UserStatus, error) {
	statuses := []models.UserStatus{}
	err := sqlx.SelectContext(ctx, r.db, &statuses, r.db.Rebind(`
		SELECT `+statusColumns+` FROM user_status
		WHERE room_id = ? AND status = ?
		ORDER BY user_name`), roomID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	return statuses, nil
}

type sqlOnlineTimeRepo struct {
	db database.TxQuerier
}

// NewSQLOnlineTimeRepo, OnlineTimeRepository'nin sqlx implementasyonunu oluşturur.
func NewSQLOnlineTimeRepo(db database.TxQuerier) OnlineTimeRepository {
	return &sqlOnlineTimeRepo{db: db}
}

func (r *sqlOnlineTimeRepo) GetByUserID(ctx context.Context, userID int64) (*models.OnlineTime, error) {
	var ot models.OnlineTime
	err := sqlx.GetContext(ctx, r.db, &ot, r.db.Rebind(`
		SELECT id, user_id, session_start, session_end, total_online_seconds
		FROM user_online_time WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: online time for user %d", pkg.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get online time: %w", err)
	}
	return &ot, nil
}

func (r *sqlOnlineTimeRepo) Create(ctx context.Context, userID int64, start time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO user_online_time (user_id, session_start, total_online_seconds)
		VALUES (?, ?, 0)`), userID, start.UTC())
	if err != nil {
		return fmt.Errorf("failed to create online time: %w", err)
	}
	return nil
}

func (r *sqlOnlineTimeRepo) Open(ctx context.Context, userID int64, start time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE user_online_time SET session_start = ?, session_end = NULL
		WHERE user_id = ?`), start.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	return requireAffected(res, "online time", userID)
}

func (r *sqlOnlineTimeRepo) Close(ctx context.Context, userID int64, end time.Time, addSeconds int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE user_online_time
		SET session_start = NULL, session_end = ?, total_online_seconds = total_online_seconds + ?
		WHERE user_id = ?`), end.UTC(), addSeconds, userID)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return requireAffected(res, "online time", userID)
}
