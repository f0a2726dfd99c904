package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg/metrics"
)

func newTestClient(hub *Hub, userID int64, name string, roomID int64) *Client {
	user := &models.User{ID: userID, UserName: name, Avatar: name + ".png", Role: models.RoleUser}
	return NewClient(hub, nil, user, roomID, ClientOptions{HistoryLimit: 20, Lang: "en"})
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// drain, client'ın kuyruğundaki tüm frame'leri bloklamadan okur.
func drain(t *testing.T, c *Client) []map[string]any {
	t.Helper()
	var frames []map[string]any
	for {
		select {
		case data := <-c.send:
			var frame map[string]any
			require.NoError(t, json.Unmarshal(data, &frame))
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func TestHub_ConnectLastWriterWins(t *testing.T) {
	hub := NewHub()
	first := newTestClient(hub, 1, "alice", 10)
	second := newTestClient(hub, 1, "alice", 10)

	assert.Nil(t, hub.Connect(first))
	assert.Same(t, first, hub.Connect(second))
	assert.Equal(t, 1, hub.ConnectionCount())

	// Eski bağlantının finalizer'ı yeni kaydı silmemeli
	assert.False(t, hub.Disconnect(first))
	assert.Equal(t, 1, hub.ConnectionCount())

	assert.True(t, hub.Disconnect(second))
	assert.False(t, hub.Disconnect(second))
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, 1, "alice", 10)
	b := newTestClient(hub, 2, "bob", 10)
	c := newTestClient(hub, 3, "carol", 20)
	for _, cl := range []*Client{a, b, c} {
		hub.Connect(cl)
	}

	hub.BroadcastToRoom(10, NewDeletedFrame(7))

	for _, cl := range []*Client{a, b} {
		frames := drain(t, cl)
		require.Len(t, frames, 1)
		assert.Equal(t, map[string]any{"deleted": map[string]any{"id": float64(7)}}, frames[0])
	}
	assert.Empty(t, drain(t, c))
}

func TestHub_BroadcastPreservesOrder(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, 1, "alice", 10)
	hub.Connect(a)

	for i := 1; i <= 5; i++ {
		hub.BroadcastToRoom(10, NewDeletedFrame(int64(i)))
	}

	frames := drain(t, a)
	require.Len(t, frames, 5)
	for i, f := range frames {
		assert.Equal(t, float64(i+1), f["deleted"].(map[string]any)["id"])
	}
}

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, 1, "alice", 10)
	hub.Connect(a)

	assert.True(t, hub.SendToUser(1, NoticeFrame{Notice: "hi"}))
	assert.False(t, hub.SendToUser(99, NoticeFrame{Notice: "hi"}))

	frames := drain(t, a)
	require.Len(t, frames, 1)
	assert.Equal(t, "hi", frames[0]["notice"])
}

func TestHub_RelayTypingExcludesSender(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, 1, "alice", 10)
	b := newTestClient(hub, 2, "bob", 10)
	c := newTestClient(hub, 3, "carol", 20)
	for _, cl := range []*Client{a, b, c} {
		hub.Connect(cl)
	}

	hub.RelayTyping(10, "alice", 1)

	assert.Empty(t, drain(t, a))
	assert.Empty(t, drain(t, c))
	frames := drain(t, b)
	require.Len(t, frames, 1)
	assert.Equal(t, map[string]any{"type": "alice"}, frames[0])
}

func TestHub_Presence(t *testing.T) {
	hub := NewHub()
	hub.Connect(newTestClient(hub, 2, "bob", 10))
	hub.Connect(newTestClient(hub, 1, "alice", 10))
	hub.Connect(newTestClient(hub, 3, "carol", 20))

	snapshot := hub.PresenceSnapshot(10)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "alice", snapshot[0].UserName)
	assert.Equal(t, "bob", snapshot[1].UserName)

	assert.Empty(t, hub.PresenceSnapshot(99))

	a := newTestClient(hub, 1, "alice", 10)
	hub.Connect(a)
	hub.BroadcastPresence(10)

	frames := drain(t, a)
	require.Len(t, frames, 1)
	users := frames[0]["active_users"].([]any)
	require.Len(t, users, 2)
	assert.Equal(t, float64(1), users[0].(map[string]any)["user_id"])
}

func TestHub_FullBufferDropsRecipient(t *testing.T) {
	hub := NewHub()
	slow := newTestClient(hub, 1, "slow", 10)
	fast := newTestClient(hub, 2, "fast", 10)
	hub.Connect(slow)
	hub.Connect(fast)

	for i := 0; i < sendBufferSize; i++ {
		slow.send <- []byte(`{}`)
	}

	before := counterValue(t, metrics.BroadcastDrops)
	hub.BroadcastToRoom(10, NoticeFrame{Notice: "x"})

	assert.Equal(t, before+1, counterValue(t, metrics.BroadcastDrops))
	// Yavaş alıcı diğerlerini engellemez
	assert.Len(t, drain(t, fast), 1)
}

func TestClient_FinishIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, 1, "alice", 10)
	hub.Connect(c)

	c.finish()
	c.finish()

	assert.Equal(t, 0, hub.ConnectionCount())
	_, open := <-c.send
	assert.False(t, open)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			// Aynı kullanıcı id'leri goroutine'ler arasında paylaşılır: kayıtlar üzerine yazılır
			userID := int64(g%10 + 1)
			roomID := int64(g%3 + 1)
			for i := 0; i < 20; i++ {
				c := newTestClient(hub, userID, fmt.Sprintf("user%d", userID), roomID)
				hub.Connect(c)
				hub.BroadcastToRoom(roomID, NewDeletedFrame(int64(i)))
				hub.RelayTyping(roomID, c.UserName(), userID)
				hub.BroadcastPresence(roomID)
				hub.SendToUser(userID, NoticeFrame{Notice: "x"})
				_ = hub.PresenceSnapshot(roomID)
				hub.Disconnect(c)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ConnectionCount())
	for roomID := int64(1); roomID <= 3; roomID++ {
		assert.Empty(t, hub.PresenceSnapshot(roomID))
	}
}

func TestHub_ShutdownRejectsNewConnections(t *testing.T) {
	hub := NewHub()
	current := newTestClient(hub, 1, "alice", 10)
	superseded := newTestClient(hub, 1, "alice", 20)

	require.True(t, hub.attach(superseded))
	require.True(t, hub.attach(current))
	hub.Connect(superseded)
	hub.Connect(current)

	// Registry'de tek giriş olsa da iki bağlantı da canlı sayılır
	assert.Equal(t, 1, hub.ConnectionCount())
	assert.Len(t, hub.conns, 2)

	hub.Shutdown()
	assert.False(t, hub.attach(newTestClient(hub, 2, "bob", 10)))

	superseded.finish()
	current.finish()
	assert.Empty(t, hub.conns)
	assert.Equal(t, 0, hub.ConnectionCount())
}
