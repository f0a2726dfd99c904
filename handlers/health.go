package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Nevojt/company-chat/pkg"
)

// HealthStatus, GET /api/health cevabı.
type HealthStatus struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Database    string `json:"database"`
	Connections int    `json:"connections"`
}

// ConnectionCounter, registry'deki bağlantı sayısı (ws.Hub).
type ConnectionCounter interface {
	ConnectionCount() int
}

// Pinger, veritabanı erişilebilirlik kontrolü (sqlx.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler, liveness/readiness endpoint'i.
type HealthHandler struct {
	hub ConnectionCounter
	db  Pinger
}

// NewHealthHandler, constructor.
func NewHealthHandler(hub ConnectionCounter, db Pinger) *HealthHandler {
	return &HealthHandler{hub: hub, db: db}
}

// Check, DB ping'i başarısızsa 503 döner.
//
// GET /api/health
// Response: { "success": true, "data": { "status": "ok", "connections": 3, ... } }
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:      "ok",
		Service:     "company-chat",
		Database:    "ok",
		Connections: h.hub.ConnectionCount(),
	}

	code := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
		code = http.StatusServiceUnavailable
	}

	pkg.JSON(w, code, status)
}
