package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
	"github.com/Nevojt/company-chat/pkg/events"
	"github.com/Nevojt/company-chat/pkg/i18n"
	"github.com/Nevojt/company-chat/pkg/metrics"
	"github.com/Nevojt/company-chat/ws"
)

// PresenceEvent, join/leave olaylarının gövdesi.
type PresenceEvent struct {
	UserID int64 `json:"user_id"`
	RoomID int64 `json:"room_id"`
}

// ChatService, bir WebSocket bağlantısının protokol akışını yürütür.
// ws.SessionHandler interface'ini karşılar; main.go'da ws.Handler'a inject edilir.
//
// Akış:
//   - Join: oda → blok kontrolü → ban durumu → registry → status/oturum → presence → geçmiş → silme geri sayımı
//   - HandleFrame: decode → (ban kontrolü) → lifecycle → hata ise özel notice
//   - Leave: registry → oturum kapanışı → status sıfırlama → presence
type ChatService struct {
	hub       *ws.Hub
	rooms     RoomStore
	gate      ModerationGate
	messages  MessageService
	sessions  SessionService
	publisher events.Publisher
	language  string
	now       func() time.Time

	mu       sync.Mutex
	draining bool
	live     sync.WaitGroup // Join'i başarılı olmuş ve Leave'i henüz bitmemiş bağlantılar
}

// ErrShuttingDown, Drain başladıktan sonra gelen Join'lere döner.
var ErrShuttingDown = errors.New("server is shutting down")

// NewChatService, constructor. language, oda geneline giden notice'lerin dilidir.
func NewChatService(
	hub *ws.Hub,
	rooms RoomStore,
	gate ModerationGate,
	messages MessageService,
	sessions SessionService,
	publisher events.Publisher,
	language string,
) *ChatService {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &ChatService{
		hub:       hub,
		rooms:     rooms,
		gate:      gate,
		messages:  messages,
		sessions:  sessions,
		publisher: publisher,
		language:  language,
		now:       time.Now,
	}
}

// Join, bağlantıyı odaya sokar. Hata dönerse bağlantı policy koduyla kapanır.
func (s *ChatService) Join(ctx context.Context, c *ws.Client) (err error) {
	// Başarılı Join'in karşılığı Leave'deki Done'dır
	if !s.enter() {
		c.CloseWith(websocket.CloseGoingAway, "server shutting down")
		return ErrShuttingDown
	}
	defer func() {
		if err != nil {
			s.live.Done()
		}
	}()

	room, err := s.rooms.GetRoomByID(ctx, c.RoomID())
	if err != nil {
		c.Send(ws.NoticeFrame{Notice: NoticeFor(c.Lang(), err)})
		return fmt.Errorf("failed to load room %d: %w", c.RoomID(), err)
	}
	c.SetRoomName(room.Name)

	if s.gate.IsRoomBlocked(room) {
		if !c.IsAdmin() {
			text := i18n.NewLocalizer(s.language).T("notice.room_blocked")
			frame := s.messages.SystemNotice(room.ID, text)
			c.Send(frame)
			s.hub.BroadcastToRoom(room.ID, frame)
			c.CloseWith(websocket.ClosePolicyViolation, "room is blocked")
			return fmt.Errorf("%w: room %d is blocked", pkg.ErrPolicyBlocked, room.ID)
		}
		log.Printf("[chat] admin %s (id=%d) accessed blocked room %q", c.UserName(), c.UserID(), room.Name)
	}

	status, err := s.gate.IsBanned(ctx, c.UserID(), room.ID)
	if err != nil {
		c.Send(ws.NoticeFrame{Notice: NoticeFor(c.Lang(), err)})
		return err
	}
	if status.Banned {
		c.SetBannedUntil(status.Until)
	}

	if replaced := s.hub.Connect(c); replaced != nil {
		log.Printf("[chat] user %d reconnected, conn %s superseded by %s", c.UserID(), replaced.ConnID(), c.ConnID())
		// Eski bağlantının Leave'i registry'ye dokunmayacak; eski oda
		// kullanıcının ayrıldığını şimdi görmeli.
		if replaced.RoomID() != room.ID {
			s.hub.BroadcastPresence(replaced.RoomID())
		}
	}

	user := &models.User{ID: c.UserID(), UserName: c.UserName()}
	if err := s.sessions.Join(ctx, user, room); err != nil {
		c.Send(ws.NoticeFrame{Notice: NoticeFor(c.Lang(), err)})
		return err
	}

	s.hub.BroadcastPresence(room.ID)

	history, err := s.messages.History(ctx, room.ID, c.HistoryLimit())
	if err != nil {
		// Geçmiş yüklenemese de bağlantı açık kalır
		s.reject(c, err)
	}
	for _, env := range history {
		c.Send(ws.NewMessageFrame(env))
	}

	if frame, ok := s.messages.RoomDeletionCountdown(room); ok {
		s.hub.BroadcastToRoom(room.ID, frame)
	}

	s.publish(ctx, events.UserJoined, PresenceEvent{UserID: c.UserID(), RoomID: room.ID})
	return nil
}

// HandleFrame, tek bir inbound frame'i işler. Hiçbir hata döngüyü bitirmez.
func (s *ChatService) HandleFrame(ctx context.Context, c *ws.Client, raw []byte) {
	in, err := ws.DecodeInbound(raw)
	if err != nil {
		metrics.FramesTotal.WithLabelValues("invalid").Inc()
		s.reject(c, err)
		return
	}
	metrics.FramesTotal.WithLabelValues(string(in.Kind)).Inc()

	if err := s.dispatch(ctx, c, in); err != nil {
		s.reject(c, err)
	}
}

func (s *ChatService) dispatch(ctx context.Context, c *ws.Client, in *ws.Inbound) error {
	switch in.Kind {
	case ws.FrameTyping:
		// Banlı kullanıcının typing sinyali yayılmaz
		if !c.Banned(s.now()) {
			s.hub.RelayTyping(c.RoomID(), c.UserName(), c.UserID())
		}
		return nil

	case ws.FrameLimit:
		page, err := s.messages.HistoryPage(ctx, c.RoomID(), in.Limit)
		if err != nil {
			return err
		}
		c.Send(ws.NoticeFrame{Notice: page.Notice})
		for _, env := range page.Messages {
			c.Send(ws.NewMessageFrame(env))
		}
		return nil
	}

	// Buradan sonrası mesaj mutasyonu: banlı kullanıcı engellenir
	if err := s.checkBan(ctx, c); err != nil {
		return err
	}

	switch in.Kind {
	case ws.FrameVote:
		_, err := s.messages.Vote(ctx, c.UserID(), in.Vote.MessageID, in.Vote.Dir)
		return err

	case ws.FrameUpdate:
		_, err := s.messages.Edit(ctx, c.UserID(), in.Update.ID, *in.Update.Message)
		return err

	case ws.FrameDelete:
		return s.messages.Delete(ctx, c.UserID(), in.Delete.ID)

	case ws.FrameSend:
		_, err := s.messages.Send(ctx, SendInput{
			SenderID: c.UserID(),
			RoomID:   c.RoomID(),
			Text:     in.Send.Message,
			FileURL:  in.Send.FileURL,
			VoiceURL: in.Send.VoiceURL,
			VideoURL: in.Send.VideoURL,
			ReplyTo:  in.Send.ReplyTo,
			Lang:     c.Lang(),
		})
		return err
	}

	return fmt.Errorf("%w: unhandled frame kind %q", ws.ErrInvalidFrame, in.Kind)
}

// checkBan, ban'ı her mutasyonda yeniden çözer: süre bağlantı sırasında
// dolarsa kullanıcı tekrar yazabilir. Sonuç typing bastırma için önbelleğe alınır.
func (s *ChatService) checkBan(ctx context.Context, c *ws.Client) error {
	status, err := s.gate.IsBanned(ctx, c.UserID(), c.RoomID())
	if err != nil {
		return err
	}
	if !status.Banned {
		c.SetBannedUntil(time.Time{})
		return nil
	}

	c.SetBannedUntil(status.Until)
	s.publish(ctx, events.SendBlocked, PresenceEvent{UserID: c.UserID(), RoomID: c.RoomID()})
	return &BannedError{RemainingMinutes: status.RemainingMinutes}
}

// Leave, bağlantı finalizer'ı. Join başarılı olduysa her çıkış yolunda bir kez çalışır.
//
// Registry girişi daha yeni bir bağlantı tarafından üzerine yazıldıysa oturum
// ve status o bağlantıya aittir; bu durumda sadece loglanır.
func (s *ChatService) Leave(ctx context.Context, c *ws.Client) {
	defer s.live.Done()

	if !s.hub.Disconnect(c) {
		log.Printf("[chat] conn %s of user %d was superseded, skipping session cleanup", c.ConnID(), c.UserID())
		return
	}

	if _, err := s.sessions.Leave(ctx, c.UserID()); err != nil {
		log.Printf("[chat] session cleanup failed for user %d: %v", c.UserID(), err)
	}

	s.hub.BroadcastPresence(c.RoomID())
	s.publish(ctx, events.UserLeft, PresenceEvent{UserID: c.UserID(), RoomID: c.RoomID()})
}

// enter, Join'i live sayacına ekler. Drain başladıysa false döner;
// Add ve draining kontrolü aynı kilit altında olduğu için Wait'ten sonra Add olmaz.
func (s *ChatService) enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.live.Add(1)
	return true
}

// Drain, açık bağlantıların finalizer'larının bitmesini bekler (graceful shutdown).
// Hub.Shutdown'dan sonra çağrılır; bu andan sonra yeni Join kabul edilmez.
// ctx dolarsa beklemeyi bırakır.
func (s *ChatService) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.live.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connections still closing: %w", ctx.Err())
	}
}

// reject, hatayı bağlantının diline göre notice'e çevirip sadece o client'a gönderir.
// Domain dışı hatalar tam bağlamıyla loglanır.
func (s *ChatService) reject(c *ws.Client, err error) {
	if !pkg.IsDomain(err) {
		log.Printf("[chat] action failed for user %d in room %d: %v", c.UserID(), c.RoomID(), err)
	}
	c.Send(ws.NoticeFrame{Notice: NoticeFor(c.Lang(), err)})
}

func (s *ChatService) publish(ctx context.Context, event string, payload PresenceEvent) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		log.Printf("[chat] failed to publish %s: %v", event, err)
	}
}
