package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"iuem_fetcher/internal/domain"
)

type NATSConfig struct {
	URL     string
	Subject string
}

// NATS publishes post events as JSON on a single subject with trace context
// carried in the message headers.
type NATS struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewNATS(cfg NATSConfig, logger *slog.Logger) (*NATS, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("iuem-ingest"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	logger.Info("connected to nats", "url", nc.ConnectedUrl(), "subject", cfg.Subject)

	return &NATS{conn: nc, subject: cfg.Subject, logger: logger}, nil
}

func (n *NATS) Publish(ctx context.Context, event domain.PostEvent) error {
	msg, err := newEventMsg(ctx, n.subject, event)
	if err != nil {
		return err
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	n.logger.Debug("published event",
		"event_id", event.ID,
		"action", event.Action,
		"subject", n.subject,
		"posts", len(event.IDs),
	)
	return nil
}

// Close flushes pending messages before closing the connection.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}

func newEventMsg(ctx context.Context, subject string, event domain.PostEvent) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(msg))
	return msg, nil
}

// natsHeaderCarrier adapts nats.Msg headers for the otel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}
