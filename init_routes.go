// Package main: HTTP route registration.
//
// initRoutes, tüm endpoint'leri mux'a bağlar.
// REST endpoint'leri Bearer token ister (AuthMiddleware); WebSocket
// endpoint'i token'ı query parameter'dan kendisi doğrular.
package main

import (
	"net/http"

	"github.com/Nevojt/company-chat/config"
	"github.com/Nevojt/company-chat/middleware"
	"github.com/Nevojt/company-chat/pkg/metrics"
	"github.com/Nevojt/company-chat/services"
)

// initRoutes, middleware chain'i kurar ve endpoint'leri mux'a bağlar.
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService, cfg *config.Config) {
	authMw := middleware.NewAuthMiddleware(authService)
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Health check, auth yok (load balancer / orchestrator)
	mux.HandleFunc("GET /api/health", h.Health.Check)

	// Rooms, oda durumu okuma
	mux.Handle("GET /api/rooms/{id}/online", auth(h.Room.Online))
	mux.Handle("GET /api/rooms/{id}/messages", auth(h.Room.Messages))

	// Prometheus scrape endpoint'i
	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// WebSocket, token query parameter ile authenticate edilir
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws/{room_id}?token=JWT_TOKEN&limit=20&lang=uk
	mux.HandleFunc("GET /ws/{room_id}", h.WS.HandleConnection)
}
