// Package cache: Generic in-memory TTL cache.
//
// Sohbet sunucusunda AuthService kullanır: token → kullanıcı çözümlemesi
// kısa TTL ile tutulur, her handshake ve REST isteğinde DB'ye gidilmez.
//
// TTL (Time To Live) nedir?
// Her entry bir "son kullanma tarihi" taşır. Bu tarih geçtikten sonra
// Get cache miss döner; fiziksel silme arka planda periyodik yapılır.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, thread-safe generic TTL cache.
//
//	users := cache.New[int64, *models.User](30*time.Second, time.Minute)
//	users.Set(42, u)
//	u, ok := users.Get(42)
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// New, yeni bir TTLCache oluşturur ve periyodik temizleme goroutine'ini başlatır.
// cleanupInterval <= 0 ise temizleme goroutine'i başlatılmaz.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go func() {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					c.evictExpired()
				case <-c.stopCleanup:
					return
				}
			}
		}()
	}

	return c
}

// Get, key süresi dolmamışsa (value, true) döner.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, cache'e bir değer yazar (TTL ile).
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// GetOrLoad, cache miss durumunda loader'ı çağırır ve sonucu saklar.
// Loader hata dönerse hiçbir şey cache'lenmez.
//
// Aynı key için eşzamanlı iki miss iki kez loader çağırabilir; sonuçlar
// aynı olduğu sürece bu zararsızdır.
func (c *TTLCache[K, V]) GetOrLoad(key K, loader func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := loader()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Delete, belirli bir key'i siler.
// Kullanım: kullanıcı engellendiğinde ya da oda bloklandığında invalidate.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len, cache'teki toplam entry sayısını döner (süresi dolmuşlar dahil).
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close, temizleme goroutine'ini durdurur. Birden fazla çağrılabilir.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
