package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

type natsPublisher struct {
	conn *nats.Conn
}

func newNATSPublisher(url string) (*natsPublisher, error) {
	opts := []nats.Option{
		nats.Name("company-chat"),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[events] nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[events] nats reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[events] nats connected to %s", nc.ConnectedUrl())
	return &natsPublisher{conn: nc}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(newEnvelope(event, payload))
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event, err)
	}

	if err := p.conn.Publish(Subject(event), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", event, err)
	}
	return nil
}

// Close, bekleyen mesajları flush edip bağlantıyı kapatır.
func (p *natsPublisher) Close() error {
	return p.conn.Drain()
}
