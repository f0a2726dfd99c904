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

type sqlMessageRepo struct {
	db database.TxQuerier
}

// NewSQLMessageRepo, MessageRepository'nin sqlx implementasyonunu oluşturur.
func NewSQLMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqlMessageRepo{db: db}
}

// messageSelect, mesajı gönderici bilgisi ve oy toplamıyla okuyan ortak SELECT.
// GROUP BY primary key'ler üzerinden yapılır; postgres bu sayede diğer
// kolonları da kabul eder.
const messageSelect = `
	SELECT m.id, m.room_id, m.sender_id, m.body, m.file_url, m.voice_url, m.video_url,
	       m.id_return, m.edited, m.deleted, m.created_at,
	       u.user_name, u.avatar, u.verified,
	       COALESCE(SUM(v.dir), 0) AS vote
	FROM messages m
	LEFT JOIN users u ON u.id = m.sender_id
	LEFT JOIN votes v ON v.message_id = m.id`

func (r *sqlMessageRepo) Insert(ctx context.Context, msg *models.NewMessage, createdAt time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO messages (room_id, sender_id, body, file_url, voice_url, video_url, id_return, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		msg.RoomID, msg.SenderID, msg.Body, msg.FileURL, msg.VoiceURL, msg.VideoURL, msg.ReplyTo, createdAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	return id, nil
}

func (r *sqlMessageRepo) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	var msg models.Message
	err := sqlx.GetContext(ctx, r.db, &msg, r.db.Rebind(messageSelect+`
		WHERE m.id = ?
		GROUP BY m.id, u.id`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message %d", pkg.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

func (r *sqlMessageRepo) ListRecent(ctx context.Context, roomID int64, limit int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := sqlx.SelectContext(ctx, r.db, &msgs, r.db.Rebind(messageSelect+`
		WHERE m.room_id = ?
		GROUP BY m.id, u.id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?`), roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	return msgs, nil
}

func (r *sqlMessageRepo) UpdateBody(ctx context.Context, id int64, body *string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE messages SET body = ?, edited = ? WHERE id = ?`), body, true, id)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return requireAffected(res, "message", id)
}

func (r *sqlMessageRepo) Tombstone(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE messages
		SET body = NULL, file_url = NULL, voice_url = NULL, video_url = NULL,
		    id_return = NULL, deleted = ?
		WHERE id = ?`), true, id)
	if err != nil {
		return fmt.Errorf("failed to tombstone message: %w", err)
	}
	return requireAffected(res, "message", id)
}

func (r *sqlMessageRepo) CountByRoom(ctx context.Context, roomID int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, r.db.Rebind(`SELECT COUNT(*) FROM messages WHERE room_id = ?`), roomID)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
