// Package ratelimit: in-memory, tek instance rate limiter'lar.
//
// İki limiter var:
//   - ConnectRateLimiter: IP bazlı WebSocket handshake limiti. Aynı IP'den
//     yeniden bağlanma fırtınası DB'ye (kullanıcı, oda, session sorguları) yük bindirir.
//   - MessageRateLimiter: kullanıcı bazlı mesaj gönderim limiti.
//
// pkg/ratelimit hiçbir proje içi pakete bağımlı değildir (leaf dependency).
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// bucket, sabit pencere sayacı: windowStart + window geçince sıfırlanır.
type bucket struct {
	count       int
	windowStart time.Time
}

// ConnectRateLimiter, IP bazlı handshake limiti.
//
//	limiter := NewConnectRateLimiter(30, time.Minute)
//	if !limiter.Allow(ratelimit.ExtractIP(r)) { 429 }
type ConnectRateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewConnectRateLimiter, limiter oluşturur. maxAttempts <= 0 ise limit yoktur.
func NewConnectRateLimiter(maxAttempts int, window time.Duration) *ConnectRateLimiter {
	rl := &ConnectRateLimiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	go cleanupLoop(time.Minute, rl.stopCleanup, rl.cleanup)

	return rl
}

// Allow, IP için bir handshake denemesi sayar ve limit içindeyse true döner.
func (rl *ConnectRateLimiter) Allow(ip string) bool {
	if rl.maxAttempts <= 0 {
		return true
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[ip]
	if !exists || now.Sub(b.windowStart) > rl.window {
		rl.buckets[ip] = &bucket{count: 1, windowStart: now}
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// RetryAfterSeconds, Retry-After header değeri için kalan pencere süresi.
func (rl *ConnectRateLimiter) RetryAfterSeconds(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[ip]
	if !exists {
		return 0
	}

	remaining := rl.window - rl.now().Sub(b.windowStart)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Close, temizleme goroutine'ini durdurur.
func (rl *ConnectRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *ConnectRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// cleanupLoop, her interval'da fn'i çalıştırır; stop kapanınca çıkar.
func cleanupLoop(interval time.Duration, stop <-chan struct{}, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn()
		case <-stop:
			return
		}
	}
}

// ExtractIP, HTTP request'ten client IP adresini çıkarır.
//
// Öncelik sırası:
// 1. X-Forwarded-For header (reverse proxy arkasındaysa, ilk IP)
// 2. X-Real-IP header
// 3. RemoteAddr
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
