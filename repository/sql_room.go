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

type sqlRoomRepo struct {
	db database.TxQuerier
}

// NewSQLRoomRepo, RoomRepository'nin sqlx implementasyonunu oluşturur.
func NewSQLRoomRepo(db database.TxQuerier) RoomRepository {
	return &sqlRoomRepo{db: db}
}

const roomColumns = `id, name_room, image_room, owner, secret_room, block, delete_at, created_at`

func (r *sqlRoomRepo) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	return r.getOne(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
}

func (r *sqlRoomRepo) GetByName(ctx context.Context, name string) (*models.Room, error) {
	return r.getOne(ctx, `SELECT `+roomColumns+` FROM rooms WHERE name_room = ?`, name)
}

func (r *sqlRoomRepo) getOne(ctx context.Context, query string, arg any) (*models.Room, error) {
	var room models.Room
	err := sqlx.GetContext(ctx, r.db, &room, r.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: room %v", pkg.ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func (r *sqlRoomRepo) Create(ctx context.Context, room *models.Room) error {
	room.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO rooms (name_room, image_room, owner, secret_room, block, delete_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		room.Name, room.Image, room.Owner, room.Secret, room.Blocked, room.DeleteAt, room.CreatedAt,
	).Scan(&room.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: room name %q already taken", pkg.ErrBadRequest, room.Name)
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (r *sqlRoomRepo) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE rooms SET block = ? WHERE id = ?`), blocked, id)
	if err != nil {
		return fmt.Errorf("failed to update room block flag: %w", err)
	}
	return requireAffected(res, "room", id)
}

func (r *sqlRoomRepo) ScheduleDeletion(ctx context.Context, id int64, at *time.Time) error {
	var stamp *time.Time
	if at != nil {
		utc := at.UTC()
		stamp = &utc
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE rooms SET delete_at = ? WHERE id = ?`), stamp, id)
	if err != nil {
		return fmt.Errorf("failed to schedule room deletion: %w", err)
	}
	return requireAffected(res, "room", id)
}

// requireAffected, UPDATE/DELETE hiçbir satıra dokunmadıysa ErrNotFound döner.
func requireAffected(res sql.Result, entity string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %d", pkg.ErrNotFound, entity, id)
	}
	return nil
}
