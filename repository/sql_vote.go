package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Nevojt/company-chat/database"
	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
)

type sqlVoteRepo struct {
	db database.TxQuerier
}

// NewSQLVoteRepo, VoteRepository'nin sqlx implementasyonunu oluşturur.
func NewSQLVoteRepo(db database.TxQuerier) VoteRepository {
	return &sqlVoteRepo{db: db}
}

func (r *sqlVoteRepo) Get(ctx context.Context, userID, messageID int64) (*models.Vote, error) {
	var vote models.Vote
	err := sqlx.GetContext(ctx, r.db, &vote, r.db.Rebind(`
		SELECT user_id, message_id, dir FROM votes WHERE user_id = ? AND message_id = ?`),
		userID, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &vote, nil
}

// Create, oyu ekler. Composite primary key çift oyu engeller;
// ON CONFLICT DO NOTHING ile yarış durumunda ikinci insert sessizce düşer.
func (r *sqlVoteRepo) Create(ctx context.Context, vote *models.Vote) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO votes (user_id, message_id, dir) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`),
		vote.UserID, vote.MessageID, vote.Dir)
	if err != nil {
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

func (r *sqlVoteRepo) Delete(ctx context.Context, userID, messageID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM votes WHERE user_id = ? AND message_id = ?`), userID, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

func (r *sqlVoteRepo) DeleteByMessage(ctx context.Context, messageID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM votes WHERE message_id = ?`), messageID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete message votes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n, nil
}
