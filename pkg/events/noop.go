package events

import (
	"context"
	"log"
)

// noopPublisher, broker yokken olayları sadece loglar.
type noopPublisher struct {
	reason string
}

// NewNoop, log basan bir Publisher döner. Testler ve CLI komutları kullanır.
func NewNoop() Publisher {
	return &noopPublisher{reason: "explicit"}
}

func (p *noopPublisher) Publish(_ context.Context, event string, _ any) error {
	log.Printf("[events] noop publish subject=%s", Subject(event))
	return nil
}

func (p *noopPublisher) Close() error { return nil }
