package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nevojt/company-chat/database"
	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
)

type sqlUserRepo struct {
	db database.TxQuerier
}

// NewSQLUserRepo, UserRepository'nin sqlx implementasyonunu oluşturur.
// db hem *sqlx.DB hem *sqlx.Tx olabilir.
func NewSQLUserRepo(db database.TxQuerier) UserRepository {
	return &sqlUserRepo{db: db}
}

const userColumns = `id, email, user_name, avatar, verified, role, blocked, created_at`

func (r *sqlUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, r.db, &user,
		r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", pkg.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (r *sqlUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO users (email, user_name, avatar, verified, role, blocked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		user.Email, user.UserName, user.Avatar, user.Verified, user.Role, user.Blocked, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already in use", pkg.ErrBadRequest)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// isUniqueViolation, UNIQUE constraint ihlalini iki driver için de tanır.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
