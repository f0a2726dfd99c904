package ws

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg/metrics"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'ın pong (veya herhangi bir frame) göndermesi için beklenen süre.
	pongWait = 60 * time.Second

	// pingPeriod: Server'ın ping gönderme aralığı. pongWait'ten kısa olmalı.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize: Client'ın gönderebileceği maksimum frame boyutu (byte).
	maxMessageSize = 16 * 1024

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa client yavaş demektir ve bağlantısı düşürülür.
	sendBufferSize = 256
)

// SessionHandler, bir bağlantının protokol yaşam döngüsünü yürütür.
//
// ws paketi services'e bağımlı olmasın diye interface burada tanımlanır;
// implementasyon services.ChatService'tir (main.go'da inject edilir).
type SessionHandler interface {
	// Join, bağlantıyı odaya sokar. Hata dönerse bağlantı policy kodu ile kapatılır
	// ve Leave çağrılmaz.
	Join(ctx context.Context, c *Client) error

	// HandleFrame, tek bir inbound frame'i işler. Hatalar burada notice'e çevrilir;
	// döngü asla bir frame yüzünden bitmez.
	HandleFrame(ctx context.Context, c *Client, raw []byte)

	// Leave, bağlantı hangi sebeple biterse bitsin bir kez çalışan finalizer.
	Leave(ctx context.Context, c *Client)
}

// ClientOptions, handshake'ten gelen bağlantı parametreleri.
type ClientOptions struct {
	HistoryLimit int
	Lang         string
}

// Client, tek bir WebSocket bağlantısını ve registry girişini temsil eder.
//
// Her bağlantı için iki goroutine vardır:
//   - ReadPump: frame'leri sırayla okur ve SessionHandler'a iletir (bağlantı goroutine'i)
//   - WritePump: send channel'ından okuyup socket'e yazar
//
// Kimlik alanları bağlantı boyunca değişmez. roomName ve bannedUntil sadece
// bağlantı goroutine'inden yazılır.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	connID string

	userID   int64
	userName string
	avatar   string
	verified bool
	admin    bool

	roomID       int64
	roomName     string
	historyLimit int
	lang         string
	bannedUntil  time.Time

	send chan []byte
	mu   sync.Mutex // conn yazmalarını korur

	closeOnce   sync.Once
	closeCode   int
	closeReason string
}

// NewClient, bir kullanıcı ve oda için bağlantı oluşturur. conn testlerde nil olabilir.
func NewClient(hub *Hub, conn *websocket.Conn, user *models.User, roomID int64, opts ClientOptions) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		connID:       uuid.NewString(),
		userID:       user.ID,
		userName:     user.UserName,
		avatar:       user.Avatar,
		verified:     user.Verified,
		admin:        user.IsAdmin(),
		roomID:       roomID,
		historyLimit: opts.HistoryLimit,
		lang:         opts.Lang,
		send:         make(chan []byte, sendBufferSize),
		closeCode:    websocket.CloseNormalClosure,
	}
}

func (c *Client) ConnID() string { return c.connID }
func (c *Client) UserID() int64 { return c.userID }
func (c *Client) UserName() string { return c.userName }
func (c *Client) Avatar() string { return c.avatar }
func (c *Client) Verified() bool { return c.verified }
func (c *Client) IsAdmin() bool { return c.admin }
func (c *Client) RoomID() int64 { return c.roomID }
func (c *Client) RoomName() string { return c.roomName }
func (c *Client) HistoryLimit() int { return c.historyLimit }
func (c *Client) Lang() string { return c.lang }
func (c *Client) SetRoomName(n string) { c.roomName = n }

// SetBannedUntil, bağlantının ban bitişini önbelleğe alır (typing bastırma için).
func (c *Client) SetBannedUntil(t time.Time) { c.bannedUntil = t }

// Banned, önbellekteki ban'ın now anında aktif olup olmadığını döner.
func (c *Client) Banned(now time.Time) bool { return now.Before(c.bannedUntil) }

func (c *Client) activeUser() models.ActiveUser {
	return models.ActiveUser{
		UserID:   c.userID,
		UserName: c.userName,
		Avatar:   c.avatar,
		Verified: c.verified,
	}
}

// Send, payload'ı doğrudan bu bağlantıya gönderir (registry'den bağımsız).
// Özel notice'ler ve geçmiş gönderimi için kullanılır.
func (c *Client) Send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ws] failed to marshal payload for user %d: %v", c.userID, err)
		return
	}
	c.enqueue(data)
}

// enqueue, bloklamadan send buffer'ına ekler. Buffer doluysa bağlantı
// asenkron olarak kapatılır; çağıran döngü (örn. room broadcast) devam eder.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		metrics.BroadcastDrops.Inc()
		log.Printf("[ws] send buffer full for user %d conn=%s, dropping connection", c.userID, c.connID)
		go c.kick()
	}
}

// kick, socket'i kapatır; ReadPump hata alır ve finalizer zinciri çalışır.
func (c *Client) kick() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// CloseWith, bağlantı kapanırken gönderilecek close frame'i ayarlar.
// Sadece bağlantı goroutine'inden, Run bitmeden önce çağrılmalı.
func (c *Client) CloseWith(code int, reason string) {
	c.closeCode = code
	c.closeReason = reason
}

// Run, bağlantının tüm yaşam döngüsünü yürütür ve bağlantı kapanana kadar bloklar.
//
// Sıra: WritePump başlar → Join → okuma döngüsü → Leave → finish.
// Leave defer ile çağrılır; okuma hatası, panic veya shutdown fark etmeksizin
// (Join başarılı olduysa) mutlaka çalışır.
func (c *Client) Run(ctx context.Context, handler SessionHandler) {
	go c.WritePump()
	defer c.finish()

	if !c.hub.attach(c) {
		c.CloseWith(websocket.CloseGoingAway, "server shutting down")
		return
	}

	if err := handler.Join(ctx, c); err != nil {
		log.Printf("[ws] join rejected for user %d room=%d: %v", c.userID, c.roomID, err)
		if c.closeCode == websocket.CloseNormalClosure {
			c.CloseWith(websocket.ClosePolicyViolation, "join rejected")
		}
		return
	}

	defer handler.Leave(context.WithoutCancel(ctx), c)

	c.ReadPump(ctx, handler)
}

// finish, registry girişini (hâlâ bu bağlantıya aitse) siler ve send
// channel'ını kapatır. WritePump kuyruktakileri yazıp close frame gönderir.
func (c *Client) finish() {
	c.closeOnce.Do(func() {
		c.hub.detach(c)
		c.hub.Disconnect(c)
		close(c.send)
	})
}

// ReadPump, frame'leri okur ve sırayla işler. Bir frame işlenmeden sonraki okunmaz.
func (c *Client) ReadPump(ctx context.Context, handler SessionHandler) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %d: %v", c.userID, err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %d: %v", c.userID, err)
			}
			return
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		c.dispatch(ctx, handler, raw)
	}
}

// dispatch, tek frame'i işler; handler'daki bir panic sadece o frame'i düşürür.
func (c *Client) dispatch(ctx context.Context, handler SessionHandler, raw []byte) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[ws] panic while handling frame for user %d: %v\n%s", c.userID, p, debug.Stack())
		}
	}()
	handler.HandleFrame(ctx, c, raw)
}

// WritePump, send channel'ındaki mesajları socket'e yazar ve periyodik ping gönderir.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Channel kapatıldı, bağlantı bitti
				c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeReason))
				return
			}
			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
// gorilla/websocket aynı anda birden fazla yazıcıya izin vermez.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
