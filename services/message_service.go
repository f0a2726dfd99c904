package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
	"github.com/Nevojt/company-chat/pkg/assistant"
	"github.com/Nevojt/company-chat/pkg/events"
	"github.com/Nevojt/company-chat/pkg/i18n"
	"github.com/Nevojt/company-chat/pkg/metrics"
	"github.com/Nevojt/company-chat/pkg/moderation"
	"github.com/Nevojt/company-chat/ws"
)

// BodyCodec, mesaj gövdesinin saklama biçimi (crypto.Codec).
type BodyCodec interface {
	Encrypt(plaintext *string) (*string, error)
	Decrypt(stored string) *string
}

// SendLimiter, kullanıcı bazlı gönderim limiti (ratelimit.MessageRateLimiter).
type SendLimiter interface {
	Allow(userID int64) bool
}

// SendInput, yeni bir mesajın ham girdisi.
// Text nil olabilir (sadece medya); en az biri dolu olmalı.
type SendInput struct {
	SenderID int64
	RoomID   int64
	Text     *string
	FileURL  *string
	VoiceURL *string
	VideoURL *string
	ReplyTo  *int64
	Lang     string // sansür uyarısının dili
}

// HistoryPage, {"limit": n} isteğinin cevabı: işaret + kronolojik mesajlar.
type HistoryPage struct {
	Notice   string
	Messages []models.Envelope
}

// MessageEvent, broker'a giden lifecycle olayının gövdesi.
type MessageEvent struct {
	MessageID int64  `json:"message_id"`
	RoomID    int64  `json:"room_id"`
	UserID    int64  `json:"user_id"`
	Result    string `json:"result,omitempty"`
}

// MessageConfig, lifecycle motorunun ayarları.
type MessageConfig struct {
	SystemUser       *models.User // sistem notice'leri ve asistan cevapları bu kullanıcı adına
	AssistantHandle  string
	AssistantTimeout time.Duration
	DeletionGrace    time.Duration
	MaxHistoryLimit  int
	Language         string // oda geneline giden notice'lerin dili
}

// MessageService, mesaj yaşam döngüsü: send, edit, delete, vote, geçmiş.
//
// Her mutasyon aynı sırayı izler: store'a yaz (commit) → commit edilmiş satırı
// tekrar oku → odaya yayınla. Yayın her zaman az önce commit edilmiş hâli taşır.
type MessageService interface {
	Send(ctx context.Context, in SendInput) (*models.Envelope, error)
	Edit(ctx context.Context, callerID, messageID int64, text string) (*models.Envelope, error)
	Delete(ctx context.Context, callerID, messageID int64) error
	Vote(ctx context.Context, userID, messageID int64, dir int) (*models.Envelope, error)
	History(ctx context.Context, roomID int64, limit int) ([]models.Envelope, error)
	HistoryPage(ctx context.Context, roomID int64, limit int) (*HistoryPage, error)
	RoomDeletionCountdown(room *models.Room) (ws.MessageFrame, bool)
	SystemNotice(roomID int64, text string) ws.MessageFrame

	// Wait, bekleyen asistan cevaplarının bitmesini bekler (graceful shutdown).
	Wait()
}

type messageService struct {
	store     MessageStore
	codec     BodyCodec
	banned    moderation.WordSet
	hub       ws.Broadcaster
	limiter   SendLimiter
	publisher events.Publisher
	generator assistant.Generator
	cfg       MessageConfig
	now       func() time.Time

	pending sync.WaitGroup
}

// NewMessageService, constructor.
// limiter ve generator nil olabilir: limit yok / asistan kapalı.
func NewMessageService(
	store MessageStore,
	codec BodyCodec,
	banned moderation.WordSet,
	hub ws.Broadcaster,
	limiter SendLimiter,
	publisher events.Publisher,
	generator assistant.Generator,
	cfg MessageConfig,
) MessageService {
	if cfg.AssistantTimeout <= 0 {
		cfg.AssistantTimeout = 20 * time.Second
	}
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &messageService{
		store:     store,
		codec:     codec,
		banned:    banned,
		hub:       hub,
		limiter:   limiter,
		publisher: publisher,
		generator: generator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Send, mesajı sansürler, şifreler, yazar ve odaya yayınlar.
//
// Sansür metni değiştirdiyse gönderene, yayından önce system_warning gider.
// Metin asistan mention'ı içeriyorsa cevap ayrı bir goroutine'de üretilir ve
// aynı yoldan sistem kullanıcısı adına gönderilir.
func (s *messageService) Send(ctx context.Context, in SendInput) (env *models.Envelope, err error) {
	start := time.Now()
	defer func() { observe("send", start, err) }()

	fromSystem := in.SenderID == s.systemUserID()
	if !fromSystem && s.limiter != nil && !s.limiter.Allow(in.SenderID) {
		return nil, fmt.Errorf("%w: user %d is sending too fast", pkg.ErrRateLimited, in.SenderID)
	}

	text := nonBlank(in.Text)
	if text == nil && nonBlank(in.FileURL) == nil && nonBlank(in.VoiceURL) == nil && nonBlank(in.VideoURL) == nil {
		return nil, fmt.Errorf("%w: message or media url is required", pkg.ErrBadRequest)
	}

	if text != nil {
		censored, changed := s.censor(*text)
		text = &censored
		if changed && !fromSystem {
			warning := i18n.NewLocalizer(in.Lang).T("notice.censored")
			s.hub.SendToUser(in.SenderID, ws.NewSystemWarning(warning))
		}
	}

	body, err := s.codec.Encrypt(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrCryptoFailure, err)
	}

	msg, err := s.store.InsertMessage(ctx, &models.NewMessage{
		RoomID:   in.RoomID,
		SenderID: in.SenderID,
		Body:     body,
		FileURL:  nonBlank(in.FileURL),
		VoiceURL: nonBlank(in.VoiceURL),
		VideoURL: nonBlank(in.VideoURL),
		ReplyTo:  in.ReplyTo,
	}, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	out := s.envelope(msg)
	s.hub.BroadcastToRoom(msg.RoomID, ws.NewMessageFrame(out))
	s.publish(ctx, events.MessageSent, MessageEvent{MessageID: msg.ID, RoomID: msg.RoomID, UserID: in.SenderID})

	if !fromSystem && text != nil && s.generator != nil && moderation.MentionsAssistant(*text, s.cfg.AssistantHandle) {
		s.pending.Add(1)
		go s.replyAsAssistant(in.RoomID, *text, in.ReplyTo)
	}

	return &out, nil
}

// replyAsAssistant, asistan cevabını üretir ve Send ile odaya gönderir.
// Üretim AssistantTimeout ile sınırlıdır; hata olursa özür metni gider.
func (s *messageService) replyAsAssistant(roomID int64, prompt string, replyTo *int64) {
	defer s.pending.Done()

	genCtx, cancel := context.WithTimeout(context.Background(), s.cfg.AssistantTimeout)
	reply, ok := assistant.ReplyOrFallback(genCtx, s.generator, prompt)
	cancel()
	if !ok {
		log.Printf("[chat] assistant generation failed for room %d, sending fallback", roomID)
	}

	_, err := s.Send(context.Background(), SendInput{
		SenderID: s.systemUserID(),
		RoomID:   roomID,
		Text:     &reply,
		ReplyTo:  replyTo,
		Lang:     s.cfg.Language,
	})
	if err != nil {
		log.Printf("[chat] failed to send assistant reply to room %d: %v", roomID, err)
	}
}

// Edit, mesaj metnini sansürleyip günceller ve tek mesajı yeniden yayınlar.
// Hata sırası: yok → NotFound, başkasının → PermissionDenied, silinmiş → AlreadyDeleted.
func (s *messageService) Edit(ctx context.Context, callerID, messageID int64, text string) (env *models.Envelope, err error) {
	start := time.Now()
	defer func() { observe("edit", start, err) }()

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is required", pkg.ErrBadRequest)
	}

	censored, _ := s.censor(text)
	body, err := s.codec.Encrypt(&censored)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrCryptoFailure, err)
	}

	msg, err := s.store.EditMessage(ctx, messageID, callerID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to edit message %d: %w", messageID, err)
	}

	out := s.envelope(msg)
	s.hub.BroadcastToRoom(msg.RoomID, ws.NewMessageFrame(out))
	s.publish(ctx, events.MessageEdited, MessageEvent{MessageID: msg.ID, RoomID: msg.RoomID, UserID: callerID})

	return &out, nil
}

// Delete, mesajı tombstone'a çevirir (gövde, medya ve reply referansı
// temizlenir, mesaja ait tüm oylar silinir) ve odaya sadece id'yi yayınlar.
func (s *messageService) Delete(ctx context.Context, callerID, messageID int64) (err error) {
	start := time.Now()
	defer func() { observe("delete", start, err) }()

	msg, err := s.store.SoftDeleteMessage(ctx, messageID, callerID)
	if err != nil {
		return fmt.Errorf("failed to delete message %d: %w", messageID, err)
	}

	s.hub.BroadcastToRoom(msg.RoomID, ws.NewDeletedFrame(msg.ID))
	s.publish(ctx, events.MessageDeleted, MessageEvent{MessageID: msg.ID, RoomID: msg.RoomID, UserID: callerID})
	return nil
}

// Vote, toggle oylama yapar ve mesajın güncel toplamını odaya yayınlar.
func (s *messageService) Vote(ctx context.Context, userID, messageID int64, dir int) (env *models.Envelope, err error) {
	start := time.Now()
	defer func() { observe("vote", start, err) }()

	msg, result, err := s.store.ToggleVote(ctx, messageID, userID, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to vote on message %d: %w", messageID, err)
	}

	out := s.envelope(msg)
	s.hub.BroadcastToRoom(msg.RoomID, ws.NewMessageFrame(out))
	s.publish(ctx, events.MessageVoted, MessageEvent{
		MessageID: msg.ID,
		RoomID:    msg.RoomID,
		UserID:    userID,
		Result:    string(result),
	})

	return &out, nil
}

// History, odanın son limit mesajını kronolojik sırayla envelope olarak döner.
func (s *messageService) History(ctx context.Context, roomID int64, limit int) ([]models.Envelope, error) {
	if s.cfg.MaxHistoryLimit > 0 && limit > s.cfg.MaxHistoryLimit {
		limit = s.cfg.MaxHistoryLimit
	}

	msgs, err := s.store.FetchRecent(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for room %d: %w", roomID, err)
	}

	out := make([]models.Envelope, 0, len(msgs))
	for i := range msgs {
		out = append(out, s.envelope(&msgs[i]))
	}
	return out, nil
}

// HistoryPage, History'ye ek olarak daha eski mesaj olup olmadığını bildiren
// işareti döner: limit < toplam → "Load older messages", aksi halde "Loading all messages".
func (s *messageService) HistoryPage(ctx context.Context, roomID int64, limit int) (*HistoryPage, error) {
	count, err := s.store.CountMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages for room %d: %w", roomID, err)
	}

	msgs, err := s.History(ctx, roomID, limit)
	if err != nil {
		return nil, err
	}

	notice := ws.NoticeAllMessages
	if len(msgs) < count {
		notice = ws.NoticeOlderMessages
	}
	return &HistoryPage{Notice: notice, Messages: msgs}, nil
}

// RoomDeletionCountdown, oda silinmek üzere zamanlandıysa kalan gün sayısını
// bildiren sistem mesajını döner. Kalan gün 0 veya negatifse ok=false.
func (s *messageService) RoomDeletionCountdown(room *models.Room) (ws.MessageFrame, bool) {
	days, ok := room.DaysUntilDeletion(s.now().UTC(), s.cfg.DeletionGrace)
	if !ok || days <= 0 {
		return ws.MessageFrame{}, false
	}

	text := i18n.NewLocalizer(s.cfg.Language).TWithParams("notice.room_deletion", map[string]string{
		"days": strconv.Itoa(days),
	})
	return s.SystemNotice(room.ID, text), true
}

// SystemNotice, sistem kullanıcısı adına saklanmayan bir envelope üretir (id=0).
func (s *messageService) SystemNotice(roomID int64, text string) ws.MessageFrame {
	env := models.Envelope{
		CreatedAt: s.now().UTC(),
		RoomID:    roomID,
		UserName:  models.UnknownUserName,
		Avatar:    models.UnknownUserAvatar,
		Message:   &text,
	}
	if u := s.cfg.SystemUser; u != nil {
		id := u.ID
		env.SenderID = &id
		env.UserName = u.UserName
		env.Avatar = u.Avatar
		env.Verified = u.Verified
	}
	return ws.NewMessageFrame(env)
}

func (s *messageService) Wait() {
	s.pending.Wait()
}

// ─── Helpers ───

func (s *messageService) systemUserID() int64 {
	if s.cfg.SystemUser == nil {
		return 0
	}
	return s.cfg.SystemUser.ID
}

// envelope, saklanan satırı istemci temsiline çevirir. Gövde çözülemezse nil kalır.
func (s *messageService) envelope(m *models.Message) models.Envelope {
	var body *string
	if m.Body != nil {
		body = s.codec.Decrypt(*m.Body)
	}
	return models.NewEnvelope(m, body)
}

// censor, yasaklı kelimeleri maskeler. changed, sadece maskeleme olduysa true;
// boşluk normalizasyonu tek başına değişiklik sayılmaz.
func (s *messageService) censor(text string) (string, bool) {
	censored := moderation.Censor(text, s.banned)
	changed := censored != strings.Join(strings.Fields(text), " ")
	if changed {
		metrics.CensoredTotal.Inc()
	}
	return censored, changed
}

func (s *messageService) publish(ctx context.Context, event string, payload MessageEvent) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		log.Printf("[chat] failed to publish %s for message %d: %v", event, payload.MessageID, err)
	}
}

// observe, lifecycle metriklerini yazar: ok, rejected (domain hatası) veya error.
func observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case pkg.IsDomain(err):
		result = "rejected"
	default:
		result = "error"
	}
	metrics.LifecycleTotal.WithLabelValues(op, result).Inc()
	if err == nil {
		metrics.LifecycleLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func nonBlank(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}
