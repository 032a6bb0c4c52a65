// Package publisher announces committed post writes and deletions to a
// message broker.
package publisher

import (
	"context"
	"log/slog"

	"iuem_fetcher/internal/config"
	"iuem_fetcher/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.PostEvent) error
	Close() error
}

// New connects to the broker named by cfg.Driver. It returns a nil
// Publisher when events are disabled.
func New(cfg config.PublisherConfig, logger *slog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case config.PublisherRabbitMQ:
		pub, err := NewRabbitMQ(Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case config.PublisherNATS:
		pub, err := NewNATS(NATSConfig{
			URL:     cfg.NATS.URL,
			Subject: cfg.NATS.Subject,
		}, logger)
		if err != nil {
			return nil, err
		}
		return pub, nil
	}
	return nil, nil
}
