// Package main: Store katmanı başlatma.
//
// initStore, veritabanını açar (migration'lar dahil) ve transaction'lı
// Store facade'ını oluşturur. Store, repository'leri her operasyon için tek
// bir transaction'a bağlar; service'ler SQL görmez.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Nevojt/company-chat/config"
	"github.com/Nevojt/company-chat/database"
	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/repository"
)

// initStore, config'teki driver ile bağlantıyı açar.
// Çağıran taraf db.Close()'dan sorumludur.
func initStore(cfg *config.Config) (*database.DB, *repository.Store, error) {
	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, repository.NewStore(db.Conn), nil
}

// loadSystemUser, sistem bildirimlerinin ve asistan cevaplarının göndericisini okur.
// Kullanıcı migration ile seed edilir; yoksa config hatalıdır.
func loadSystemUser(ctx context.Context, store *repository.Store, id int64) (*models.User, error) {
	user, err := store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load system user %d (check SYSTEM_USER_ID): %w", id, err)
	}
	log.Printf("[main] system user: %s (id=%d)", user.UserName, user.ID)
	return user, nil
}
