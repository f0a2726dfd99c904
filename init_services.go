// Package main: Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu store interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
//
// Sıralama: limiter'lar ve entegrasyonlar (publisher, asistan) →
// gate/session → message → chat. ChatService diğer hepsine bağımlıdır.
package main

import (
	"log"
	"time"

	"github.com/Nevojt/company-chat/config"
	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg/assistant"
	"github.com/Nevojt/company-chat/pkg/crypto"
	"github.com/Nevojt/company-chat/pkg/events"
	"github.com/Nevojt/company-chat/pkg/moderation"
	"github.com/Nevojt/company-chat/pkg/ratelimit"
	"github.com/Nevojt/company-chat/repository"
	"github.com/Nevojt/company-chat/services"
	"github.com/Nevojt/company-chat/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth     services.AuthService
	Gate     services.ModerationGate
	Sessions services.SessionService
	Messages services.MessageService
	Chat     *services.ChatService
}

// RateLimiters, tüm rate limiter instance'larını tutan container.
type RateLimiters struct {
	Connect *ratelimit.ConnectRateLimiter
	Message *ratelimit.MessageRateLimiter
}

// Integrations, süreç dışı sistemlere bağlanan bileşenler.
type Integrations struct {
	Publisher events.Publisher
	Assistant assistant.Generator // nil → asistan kapalı
}

// initIntegrations, event publisher'ı ve asistanı config'e göre seçer.
func initIntegrations(cfg *config.Config) *Integrations {
	publisher := events.New(cfg.Events.URL, cfg.Events.Exchange)
	log.Printf("[main] event export: %s", events.Mode(publisher))

	in := &Integrations{Publisher: publisher}

	// nil *Client interface'e konursa "nil olmayan" bir Generator olur;
	// bu yüzden sadece gerçek client atanır.
	if client := assistant.New(cfg.Assistant.APIKey, cfg.Assistant.Model); client != nil {
		in.Assistant = client
		log.Printf("[main] assistant enabled (handle=%s, model=%s)", cfg.Chat.AssistantHandle, cfg.Assistant.Model)
	} else {
		log.Println("[main] assistant disabled (OPENAI_API_KEY not set)")
	}

	return in
}

// initRateLimiters, handshake ve mesaj limiter'larını oluşturur.
func initRateLimiters(cfg *config.Config) *RateLimiters {
	return &RateLimiters{
		Connect: ratelimit.NewConnectRateLimiter(cfg.Server.ConnectLimit, cfg.Server.ConnectWindow),
		Message: ratelimit.NewMessageRateLimiter(cfg.Chat.SendLimit, cfg.Chat.SendWindow, cfg.Chat.SendCooldown),
	}
}

// initServices, tüm service'leri oluşturur.
func initServices(
	store *repository.Store,
	hub *ws.Hub,
	codec *crypto.Codec,
	banned moderation.WordSet,
	systemUser *models.User,
	limiters *RateLimiters,
	in *Integrations,
	cfg *config.Config,
) *Services {
	authService := services.NewAuthService(store, cfg.JWT.Secret, cfg.JWT.CacheTTL)
	gate := services.NewModerationGate(store)
	sessions := services.NewSessionService(store, cfg.Chat.VoidRoom)

	messages := services.NewMessageService(
		store, codec, banned, hub, limiters.Message, in.Publisher, in.Assistant,
		services.MessageConfig{
			SystemUser:       systemUser,
			AssistantHandle:  cfg.Chat.AssistantHandle,
			AssistantTimeout: cfg.Assistant.Timeout,
			DeletionGrace:    time.Duration(cfg.Chat.DeletionGraceDays) * 24 * time.Hour,
			MaxHistoryLimit:  cfg.Chat.MaxHistoryLimit,
			Language:         cfg.Chat.DefaultLanguage,
		},
	)

	chat := services.NewChatService(hub, store, gate, messages, sessions, in.Publisher, cfg.Chat.DefaultLanguage)

	return &Services{
		Auth:     authService,
		Gate:     gate,
		Sessions: sessions,
		Messages: messages,
		Chat:     chat,
	}
}
