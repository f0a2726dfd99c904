// Package events, mesaj yaşam döngüsü olaylarını dış bir broker'a yayınlar.
//
// Her commit edilen send/edit/delete/vote ve ban engellemesi JSON olarak
// "chat.<event>" konusuna gider. Broker EVENTS_URL şemasından seçilir:
//
//	nats://, tls://   → NATS subject
//	amqp://, amqps:// → AMQP topic exchange (routing key = subject)
//	boş               → sadece log basan noop
//
// Yayın hataları sohbet akışını asla durdurmaz; caller sadece loglar.
package events

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Olay adları. Subject("message.sent") → "chat.message.sent".
const (
	MessageSent    = "message.sent"
	MessageEdited  = "message.edited"
	MessageDeleted = "message.deleted"
	MessageVoted   = "message.voted"
	SendBlocked    = "message.blocked"
	UserJoined     = "user.joined"
	UserLeft       = "user.left"
)

// SubjectPrefix, tüm olay konularının ortak öneki.
const SubjectPrefix = "chat"

// Publisher, olay yayıncısı.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
	Close() error
}

// Envelope, broker'a giden JSON gövdesi.
type Envelope struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Subject, olay adından broker konusunu üretir.
func Subject(event string) string {
	return SubjectPrefix + "." + event
}

func newEnvelope(event string, payload any) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}
}

// New, rawURL şemasına göre bir Publisher döner.
// Bağlantı kurulamazsa noop'a düşer ve sebebi loglar; sunucu broker olmadan da çalışır.
func New(rawURL, exchange string) Publisher {
	if rawURL == "" {
		log.Printf("[events] disabled, using noop: empty EVENTS_URL")
		return &noopPublisher{reason: "empty url"}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		log.Printf("[events] disabled, using noop: %v", err)
		return &noopPublisher{reason: err.Error()}
	}

	switch strings.ToLower(u.Scheme) {
	case "nats", "tls":
		p, err := newNATSPublisher(rawURL)
		if err != nil {
			log.Printf("[events] nats unavailable, using noop: %v", err)
			return &noopPublisher{reason: err.Error()}
		}
		return p
	case "amqp", "amqps":
		p, err := newAMQPPublisher(rawURL, exchange)
		if err != nil {
			log.Printf("[events] amqp unavailable, using noop: %v", err)
			return &noopPublisher{reason: err.Error()}
		}
		return p
	default:
		reason := "unsupported scheme " + u.Scheme
		log.Printf("[events] disabled, using noop: %s", reason)
		return &noopPublisher{reason: reason}
	}
}

// Mode, startup log'u için yayıncı türünü döner.
func Mode(p Publisher) string {
	switch p.(type) {
	case *natsPublisher:
		return "nats"
	case *amqpPublisher:
		return "amqp"
	case *noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}
