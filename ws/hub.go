package ws

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg/metrics"
)

// Broadcaster, service katmanının oda fan-out'u için kullandığı interface.
//
// Service'ler Hub'ın concrete struct'ına değil bu interface'e bağımlıdır;
// testlerde kayıt tutan sahte bir implementasyon geçilebilir.
type Broadcaster interface {
	BroadcastToRoom(roomID int64, payload any)
	SendToUser(userID int64, payload any) bool
	BroadcastPresence(roomID int64)
	RelayTyping(roomID int64, displayName string, excludeUserID int64)
}

// Hub, süreç boyunca yaşayan bağlantı kaydıdır: userID → *Client.
//
// Her kullanıcı için tek giriş vardır. Aynı kullanıcı ikinci kez bağlanırsa
// kayıt üzerine yazılır (last-writer-wins); eski bağlantı burada kapatılmaz,
// kendi ReadPump'ı bittiğinde Disconnect çağrısı no-op olur.
//
// Tek bir mutex haritanın her okuma/yazmasını korur. Broadcast'ler de
// exclusive lock altında kuyruğa alınır: aynı oda için yapılan çağrılar her
// alıcının send channel'ına çağrı sırasıyla girer.
//
// conns ise Run içindeki her bağlantıyı tutar; üzerine yazılmış (registry'de
// olmayan) eski bağlantılar da dahil. Shutdown hepsini kapatır.
type Hub struct {
	mu      sync.Mutex
	clients map[int64]*Client
	conns   map[*Client]struct{}
	closed  bool
}

// NewHub, boş bir registry oluşturur. main.go'da bir kez oluşturulup inject edilir.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]*Client),
		conns:   make(map[*Client]struct{}),
	}
}

// attach, bağlantıyı canlı bağlantılar kümesine ekler. Shutdown'dan sonra false.
func (h *Hub) attach(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c] = struct{}{}
	return true
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// Connect, client'ı kaydeder. Aynı kullanıcının önceki kaydı varsa onu döner.
func (h *Hub) Connect(c *Client) (replaced *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	replaced = h.clients[c.userID]
	h.clients[c.userID] = c
	if replaced == nil {
		metrics.Connections.Inc()
	}

	log.Printf("[ws] client connected: user=%d room=%d conn=%s", c.userID, c.roomID, c.connID)
	return replaced
}

// Disconnect, kayıt hâlâ bu client'ı gösteriyorsa siler.
// Kayıt yoksa veya daha yeni bir bağlantı üzerine yazdıysa sessizce no-op'tur.
func (h *Hub) Disconnect(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.clients[c.userID]
	if !ok || current != c {
		return false
	}
	delete(h.clients, c.userID)
	metrics.Connections.Dec()

	log.Printf("[ws] client disconnected: user=%d room=%d conn=%s", c.userID, c.roomID, c.connID)
	return true
}

// BroadcastToRoom, payload'ı odadaki her bağlantının kuyruğuna ekler.
// Yavaş bir alıcı döngüyü durdurmaz; buffer'ı doluysa o alıcı düşürülür.
func (h *Hub) BroadcastToRoom(roomID int64, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ws] failed to marshal room broadcast: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		if c.roomID == roomID {
			c.enqueue(data)
		}
	}
}

// SendToUser, tek bir kullanıcıya gönderir. Kullanıcı bağlı değilse false.
func (h *Hub) SendToUser(userID int64, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ws] failed to marshal user payload: %v", err)
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[userID]
	if !ok {
		return false
	}
	c.enqueue(data)
	return true
}

// PresenceSnapshot, odadaki kayıtlı kullanıcıları isim sırasıyla döner.
func (h *Hub) PresenceSnapshot(roomID int64) []models.ActiveUser {
	h.mu.Lock()
	users := make([]models.ActiveUser, 0)
	for _, c := range h.clients {
		if c.roomID == roomID {
			users = append(users, c.activeUser())
		}
	}
	h.mu.Unlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].UserName != users[j].UserName {
			return users[i].UserName < users[j].UserName
		}
		return users[i].UserID < users[j].UserID
	})
	return users
}

// BroadcastPresence, odanın güncel snapshot'ını odaya yayınlar.
// Her join/leave sonrasında çağrılır.
func (h *Hub) BroadcastPresence(roomID int64) {
	h.BroadcastToRoom(roomID, PresenceFrame{ActiveUsers: h.PresenceSnapshot(roomID)})
}

// RelayTyping, yazan kullanıcı hariç odadaki herkese typing bildirimi gönderir.
func (h *Hub) RelayTyping(roomID int64, displayName string, excludeUserID int64) {
	data, err := json.Marshal(TypingFrame{Type: displayName})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, c := range h.clients {
		if c.roomID == roomID && userID != excludeUserID {
			c.enqueue(data)
		}
	}
}

// ConnectionCount, kayıtlı bağlantı sayısı.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown, tüm bağlantıları kapatır (graceful shutdown) ve yenilerini reddeder.
// Her client'ın ReadPump'ı hata alır ve kendi finalizer'ını çalıştırır.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.kick()
	}
	log.Printf("[ws] hub shut down, %d connections closed", len(conns))
}
