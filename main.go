// Package main, company-chat sunucusunun giriş noktasıdır.
//
// Bu dosyanın görevi, Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (migration'lar dahil) ve Store'u oluştur
//  3. i18n çevirilerini yükle
//  4. Mesaj şifreleme codec'ini ve yasaklı kelime listesini hazırla
//  5. Sistem kullanıcısını oku
//  6. WebSocket Hub'ı oluştur
//  7. Limiter'ları ve entegrasyonları (event export, asistan) oluştur
//  8. Service'leri oluştur (store + hub ile)
//  9. Handler'ları oluştur (service'ler ile)
//  10. HTTP router'ı kur, route'ları bağla
//  11. CORS yapılandır
//  12. HTTP Server'ı başlat
//  13. Graceful shutdown
//
// Global değişken YOK, her şey runServer'da oluşturulup birbirine bağlanıyor.
// Komut satırı (serve, migrate, ban, block-room) cli.go'dadır.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/Nevojt/company-chat/config"
	"github.com/Nevojt/company-chat/database"
	"github.com/Nevojt/company-chat/pkg/crypto"
	"github.com/Nevojt/company-chat/pkg/i18n"
	"github.com/Nevojt/company-chat/pkg/moderation"
	"github.com/Nevojt/company-chat/repository"
	"github.com/Nevojt/company-chat/ws"
)

// application, serve komutunun çalışma zamanı bileşenleri.
// Kapanış sırası (init_callbacks.go) bu alanlar üzerinden kurulur.
type application struct {
	cfg          *config.Config
	db           *database.DB
	store        *repository.Store
	hub          *ws.Hub
	services     *Services
	limiters     *RateLimiters
	integrations *Integrations
	handlers     *Handlers
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// buildApplication, 1-9 arası adımları çalıştırır.
// Hata durumunda açılmış veritabanı kapatılır.
func buildApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	// ─── 2. Database + Store ───
	db, store, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	app, err := wireApplication(ctx, cfg, db, store)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func wireApplication(ctx context.Context, cfg *config.Config, db *database.DB, store *repository.Store) (*application, error) {
	// ─── 3. i18n ───
	if err := i18n.LoadEmbedded(); err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	// ─── 4. Codec + banned words ───
	key, err := crypto.DeriveKey(cfg.Crypto.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid CRYPTO_KEY: %w", err)
	}
	codec, err := crypto.NewCodec(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create message codec: %w", err)
	}

	// Liste okunamazsa sunucu yine açılır, sadece censor boş kümeyle çalışır.
	banned, err := moderation.LoadBannedWordsFile(cfg.Chat.BannedWordsPath)
	if err != nil {
		log.Printf("[main] warning: banned words not loaded from %s: %v", cfg.Chat.BannedWordsPath, err)
		banned = moderation.NewWordSet()
	} else {
		log.Printf("[main] %d banned words loaded", len(banned))
	}

	// ─── 5. System user ───
	systemUser, err := loadSystemUser(ctx, store, cfg.Chat.SystemUserID)
	if err != nil {
		return nil, err
	}

	// ─── 6-9. Hub, limiters, integrations, services, handlers ───
	hub := ws.NewHub()
	limiters := initRateLimiters(cfg)
	integrations := initIntegrations(cfg)
	svcs := initServices(store, hub, codec, banned, systemUser, limiters, integrations, cfg)
	h := initHandlers(db, store, svcs, limiters, hub, cfg)

	return &application{
		cfg:          cfg,
		db:           db,
		store:        store,
		hub:          hub,
		services:     svcs,
		limiters:     limiters,
		integrations: integrations,
		handlers:     h,
	}, nil
}

// routes, 10-11. adımlar: mux + CORS.
func (app *application) routes() http.Handler {
	mux := http.NewServeMux()
	initRoutes(mux, app.handlers, app.services.Auth, app.cfg)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   app.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(mux)
}

// runServer, serve komutunun gövdesi.
func runServer() error {
	log.Println("[main] company-chat server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.Printf("[main] config loaded (port=%d, driver=%s)", cfg.Server.Port, cfg.Database.Driver)

	app, err := buildApplication(context.Background(), cfg)
	if err != nil {
		return err
	}

	// ─── 12. HTTP Server ───
	//
	// WriteTimeout sadece REST cevaplarını sınırlar; WebSocket bağlantıları
	// upgrade sırasında hijack edildiği için bu timeout'tan etkilenmez.
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 13. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[main] server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-done:
		log.Println("[main] shutting down server...")
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] http shutdown error: %v", err)
	}

	var seq shutdownSequence
	registerShutdownHooks(&seq, app)
	if err := seq.Run(); err != nil && runErr == nil {
		runErr = err
	}

	log.Println("[main] server stopped")
	return runErr
}
