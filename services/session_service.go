package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Nevojt/company-chat/models"
)

// SessionService, kullanıcının çevrimiçi süresini ve bulunduğu odayı takip eder.
//
// Join: status satırı odaya ve online'a çekilir, oturum açılır.
// Leave: oturum kapanır (geçen süre toplama eklenir), status void odaya
// (varsayılan "Hell") ve offline'a döner.
//
// Aynı kullanıcı için eşzamanlı iki çağrının tutarlılığı store
// transaction'ının serileştirmesine bırakılmıştır; bu katmanda ek kilit yok.
type SessionService interface {
	Join(ctx context.Context, user *models.User, room *models.Room) error
	Leave(ctx context.Context, userID int64) (time.Duration, error)
}

type sessionService struct {
	store    SessionStore
	voidRoom string
	now      func() time.Time
}

// NewSessionService, constructor. voidRoom, bağlantı kapanınca yazılan oda adıdır.
func NewSessionService(store SessionStore, voidRoom string) SessionService {
	return &sessionService{store: store, voidRoom: voidRoom, now: time.Now}
}

func (s *sessionService) Join(ctx context.Context, user *models.User, room *models.Room) error {
	roomID := room.ID

	// Yoksa doğrudan doğru oda ile oluşturulur; varsa güncellenir
	if _, err := s.store.GetOrCreateUserStatus(ctx, user, &roomID, room.Name); err != nil {
		return fmt.Errorf("failed to load user status: %w", err)
	}
	if err := s.store.UpdateUserStatus(ctx, user.ID, &roomID, room.Name, true); err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	if err := s.store.StartSession(ctx, user.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return nil
}

// Leave, iki adımın ikisini de dener; ilk hatayı döner.
func (s *sessionService) Leave(ctx context.Context, userID int64) (time.Duration, error) {
	added, endErr := s.store.EndSession(ctx, userID, s.now().UTC())
	if endErr != nil {
		log.Printf("[session] failed to end session for user %d: %v", userID, endErr)
	}

	statusErr := s.store.UpdateUserStatus(ctx, userID, nil, s.voidRoom, false)
	if statusErr != nil {
		log.Printf("[session] failed to reset status for user %d: %v", userID, statusErr)
	}

	if endErr != nil {
		return 0, fmt.Errorf("failed to end session: %w", endErr)
	}
	if statusErr != nil {
		return added, fmt.Errorf("failed to reset user status: %w", statusErr)
	}
	return added, nil
}
