// Package main: kapanış callback'leri.
//
// Sunucu kapanırken bileşenler bağımlılık sırasının tersiyle durdurulur:
// önce bağlantılar (yeni frame gelmesin), sonra bekleyen asistan cevapları,
// en son dış sistemler ve veritabanı. Her adım bir öncekinin bitmesini bekler.
package main

import (
	"context"
	"log"
	"time"
)

// drainTimeout, kapanışta bağlantı finalizer'larının bekleneceği üst süre.
const drainTimeout = 10 * time.Second

// shutdownHook, isimli bir kapanış adımı.
type shutdownHook struct {
	name string
	fn   func() error
}

// shutdownSequence, register edilen sırayla çalışan callback listesi.
type shutdownSequence struct {
	hooks []shutdownHook
}

// Add, adımı sıranın sonuna ekler.
func (s *shutdownSequence) Add(name string, fn func() error) {
	s.hooks = append(s.hooks, shutdownHook{name: name, fn: fn})
}

// AddFunc, hata dönmeyen adımlar için kısayol.
func (s *shutdownSequence) AddFunc(name string, fn func()) {
	s.Add(name, func() error {
		fn()
		return nil
	})
}

// Run, tüm adımları çalıştırır. Bir adımın hatası sonrakileri durdurmaz;
// ilk hata döner.
func (s *shutdownSequence) Run() error {
	var first error
	for _, h := range s.hooks {
		if err := h.fn(); err != nil {
			log.Printf("[main] shutdown step %q failed: %v", h.name, err)
			if first == nil {
				first = err
			}
			continue
		}
		log.Printf("[main] shutdown step %q done", h.name)
	}
	return first
}

// registerShutdownHooks, serve komutunun kapanış sırasını kurar.
func registerShutdownHooks(seq *shutdownSequence, app *application) {
	seq.AddFunc("websocket connections", app.hub.Shutdown)
	seq.Add("session finalizers", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		return app.services.Chat.Drain(ctx)
	})
	seq.AddFunc("pending assistant replies", app.services.Messages.Wait)
	seq.AddFunc("rate limiters", func() {
		app.limiters.Connect.Close()
		app.limiters.Message.Close()
	})
	seq.Add("event publisher", app.integrations.Publisher.Close)
	seq.Add("database", app.db.Close)
}
