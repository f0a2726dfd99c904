// Package main: Handler katmanı başlatma.
//
// initHandlers, HTTP ve WebSocket handler'larını oluşturur.
// Handler'lar "thin"dir, sadece HTTP parse + service call + response write.
package main

import (
	"github.com/Nevojt/company-chat/config"
	"github.com/Nevojt/company-chat/database"
	"github.com/Nevojt/company-chat/handlers"
	"github.com/Nevojt/company-chat/repository"
	"github.com/Nevojt/company-chat/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Health *handlers.HealthHandler
	Room   *handlers.RoomHandler
	WS     *ws.Handler
}

// initHandlers, handler'ları service ve limiter dependency'leri ile oluşturur.
func initHandlers(db *database.DB, store *repository.Store, svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Health: handlers.NewHealthHandler(hub, db.Conn),
		Room:   handlers.NewRoomHandler(store, hub, svcs.Messages, cfg.Chat.HistoryLimit),
		WS: ws.NewHandler(hub, svcs.Auth, svcs.Chat, ws.HandlerConfig{
			DefaultHistoryLimit: cfg.Chat.HistoryLimit,
			MaxHistoryLimit:     cfg.Chat.MaxHistoryLimit,
			AllowedOrigins:      cfg.Server.AllowedOrigins,
			Limiter:             limiters.Connect,
		}),
	}
}
