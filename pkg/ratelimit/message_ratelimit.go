// MessageRateLimiter, sohbet mesajı spam koruması, kullanıcı bazlı.
//
// Davranış:
// - window içinde maxMessages mesaja izin verilir.
// - Bir fazlası cooldown başlatır; cooldown bitene kadar tüm gönderimler reddedilir.
// - Cooldown bitince pencere sıfırlanır.
//
// Sadece "send" frame'lerine uygulanır. Vote/edit/delete yazma yükü düşük olduğu
// için sınırlanmaz.
package ratelimit

import (
	"sync"
	"time"
)

type messageBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// MessageRateLimiter, kullanıcı (int64 id) bazlı mesaj limiti.
//
//	limiter := NewMessageRateLimiter(5, 5*time.Second, 15*time.Second)
//	if !limiter.Allow(userID) { ... pkg.ErrRateLimited ... }
type MessageRateLimiter struct {
	mu          sync.Mutex
	buckets     map[int64]*messageBucket
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewMessageRateLimiter, limiter oluşturur ve arka plan temizliğini başlatır.
// maxMessages <= 0 ise limiter her şeye izin verir.
func NewMessageRateLimiter(maxMessages int, window, cooldown time.Duration) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		buckets:     make(map[int64]*messageBucket),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	go cleanupLoop(30*time.Second, rl.stopCleanup, rl.cleanup)

	return rl
}

// Allow, kullanıcının şimdi mesaj gönderip gönderemeyeceğini döner ve sayacı ilerletir.
func (rl *MessageRateLimiter) Allow(userID int64) bool {
	if rl.maxMessages <= 0 {
		return true
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &messageBucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		// Cooldown bitti, yeni pencere
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxMessages {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}

	return true
}

// CooldownSeconds, kalan cooldown süresini saniye olarak döner (yoksa 0).
func (rl *MessageRateLimiter) CooldownSeconds(userID int64) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}

	remaining := b.cooldownUntil.Sub(rl.now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Close, temizleme goroutine'ini durdurur.
func (rl *MessageRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// cleanup, hem penceresi hem cooldown'u bitmiş bucket'ları siler.
func (rl *MessageRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)

		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
