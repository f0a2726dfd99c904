package ws

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg/i18n"
	"github.com/Nevojt/company-chat/pkg/ratelimit"
)

// IdentityResolver, handshake'teki token'ı kullanıcıya çevirir.
//
// ws paketi services'e bağımlı olmasın diye küçük bir interface tanımlıyoruz;
// main.go'da services.AuthService bu interface'i implicit olarak karşılar.
// Geçersiz token → hata → bağlantı kurulmaz (fail closed).
type IdentityResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// ConnectLimiter, IP bazlı handshake limiti (ratelimit.ConnectRateLimiter).
type ConnectLimiter interface {
	Allow(ip string) bool
	RetryAfterSeconds(ip string) int
}

// HandlerConfig, handshake parametrelerinin varsayılanları ve sınırları.
type HandlerConfig struct {
	DefaultHistoryLimit int
	MaxHistoryLimit     int
	AllowedOrigins      []string
	Limiter             ConnectLimiter // nil → limit yok
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub      *Hub
	identity IdentityResolver
	sessions SessionHandler
	cfg      HandlerConfig
	upgrader websocket.Upgrader
}

// NewHandler, yeni bir WebSocket handler oluşturur.
func NewHandler(hub *Hub, identity IdentityResolver, sessions SessionHandler, cfg HandlerConfig) *Handler {
	h := &Handler{
		hub:      hub,
		identity: identity,
		sessions: sessions,
		cfg:      cfg,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin, CORS_ALLOWED_ORIGINS listesine göre origin kontrolü yapar.
// Liste "*" içeriyorsa veya Origin header'ı yoksa (native client) izin verilir.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleConnection, GET /ws/{room_id}?token=&limit=&lang= isteğini
// WebSocket'e yükseltir ve bağlantının yaşam döngüsünü başlatır.
//
// Tarayıcılar WebSocket handshake'inde header gönderemediği için
// token query parameter'ı olarak gelir.
//
// Flow:
//  1. room_id, IP limiti ve token'ı doğrula
//  2. Token → kullanıcı (başarısızsa 401, bloklu kullanıcı 403)
//  3. HTTP → WebSocket upgrade
//  4. Client oluştur ve Run ile bağlantı kapanana kadar blokla
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.ParseInt(r.PathValue("room_id"), 10, 64)
	if err != nil || roomID <= 0 {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	if h.cfg.Limiter != nil {
		ip := ratelimit.ExtractIP(r)
		if !h.cfg.Limiter.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(h.cfg.Limiter.RetryAfterSeconds(ip)))
			http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
			return
		}
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	user, err := h.identity.ResolveToken(r.Context(), token)
	if err != nil {
		log.Printf("[ws] token rejected for room %d: %v", roomID, err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if user.Blocked {
		http.Error(w, "user is blocked", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %d: %v", user.ID, err)
		return
	}

	client := NewClient(h.hub, conn, user, roomID, ClientOptions{
		HistoryLimit: h.historyLimit(r.URL.Query().Get("limit")),
		Lang:         requestLanguage(r),
	})

	client.Run(r.Context(), h.sessions)
}

// historyLimit, limit parametresini [1, MaxHistoryLimit] aralığına sıkıştırır.
// Geçersiz veya boş değer varsayılana düşer.
func (h *Handler) historyLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return h.cfg.DefaultHistoryLimit
	}
	if h.cfg.MaxHistoryLimit > 0 && limit > h.cfg.MaxHistoryLimit {
		return h.cfg.MaxHistoryLimit
	}
	return limit
}

// requestLanguage, önce ?lang= parametresine, sonra Accept-Language'a bakar.
func requestLanguage(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return i18n.DetectLanguage(lang)
	}
	return i18n.DetectLanguage(r.Header.Get("Accept-Language"))
}
