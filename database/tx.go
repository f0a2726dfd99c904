// Package database: Transaction yönetimi.
//
// WithTx, birden fazla DB operasyonunun atomik (all-or-nothing) çalışmasını sağlar.
// Hepsi başarılı → COMMIT, herhangi biri başarısız → ROLLBACK.
//
// Kullanım:
//
//	err := database.WithTx(ctx, db.Conn, func(tx *sqlx.Tx) error {
//	    if _, err := tx.ExecContext(ctx, tx.Rebind("UPDATE ..."), ...); err != nil {
//	        return err  // → ROLLBACK tetiklenir
//	    }
//	    return nil  // → COMMIT
//	})
package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxQuerier, hem *sqlx.DB hem *sqlx.Tx tarafından karşılanan interface.
//
// Repository'ler bu interface'i alır; normal operasyonlarda *sqlx.DB,
// transaction içinde *sqlx.Tx geçilir. sqlx.GetContext / SelectContext
// helper'ları da bu interface ile çalışır.
type TxQuerier interface {
	sqlx.ExtContext
}

// WithTx, verilen fonksiyonu bir SQL transaction içinde çalıştırır.
//
// Davranış:
// 1. BEGIN
// 2. fn(tx) çağır
// 3. fn nil dönerse → COMMIT
// 4. fn error dönerse → ROLLBACK
// 5. fn panic atarsa → ROLLBACK + panic'i tekrar fırlat
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
