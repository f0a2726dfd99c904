package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
)

// BannedError, banlı kullanıcının engellenen aksiyonu.
// pkg.ErrPolicyBlocked ile eşleşir; notice'te kalan dakika gösterilir.
type BannedError struct {
	RemainingMinutes int
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("policy blocked: banned for %d more minutes", e.RemainingMinutes)
}

func (e *BannedError) Unwrap() error { return pkg.ErrPolicyBlocked }

// ModerationGate, oda blok ve kullanıcı ban kararlarını verir.
type ModerationGate interface {
	// IsBanned, (kullanıcı, oda) için aktif ban'ı çözer.
	// Süresi dolmuş ban bu okuma sırasında silinir: süre dolduktan sonraki
	// ilk çağrı hem Banned=false döner hem de eski kaydı kaldırır.
	IsBanned(ctx context.Context, userID, roomID int64) (models.BanStatus, error)

	// IsRoomBlocked, odanın block bayrağını yansıtır.
	IsRoomBlocked(room *models.Room) bool
}

type moderationGate struct {
	bans BanStore
	now  func() time.Time
}

// NewModerationGate, constructor.
func NewModerationGate(bans BanStore) ModerationGate {
	return &moderationGate{bans: bans, now: time.Now}
}

func (g *moderationGate) IsBanned(ctx context.Context, userID, roomID int64) (models.BanStatus, error) {
	now := g.now().UTC()

	ban, err := g.bans.GetActiveBan(ctx, userID, roomID, now)
	if errors.Is(err, pkg.ErrNotFound) {
		return models.BanStatus{}, nil
	}
	if err != nil {
		return models.BanStatus{}, fmt.Errorf("failed to resolve ban: %w", err)
	}

	return models.BanStatus{
		Banned:           true,
		RemainingMinutes: ban.RemainingMinutes(now),
		Until:            ban.EndTime,
	}, nil
}

func (g *moderationGate) IsRoomBlocked(room *models.Room) bool {
	return room != nil && room.Blocked
}
