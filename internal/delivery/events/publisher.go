package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/perfume_storefront/internal/config"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// Publisher is an event publisher holding a broker connection
type Publisher interface {
	domain.EventPublisher
	Close()
}

// NewPublisher connects the publisher selected by EVENTS_DRIVER
func NewPublisher(cfg *config.Config, log *logger.Logger) (Publisher, error) {
	if cfg.Events.Driver == config.EventsKafka {
		return NewKafkaPublisher(cfg.Kafka.Brokers, log), nil
	}
	return NewNATSPublisher(cfg, log)
}

// NATSPublisher publishes events to NATS JetStream
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewNATSPublisher connects to NATS and makes sure the storefront stream exists
func NewNATSPublisher(cfg *config.Config, log *logger.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("storefront-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := NewStreamConfig(js, log).EnsureStream(); err != nil {
		nc.Close()
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"url": cfg.NATS.URL,
	}).Info("Connected to NATS JetStream")

	return &NATSPublisher{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

// Publish stores data on subject and waits for the stream acknowledgment
func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	ack, err := p.js.Publish(subject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish to JetStream: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"subject":  subject,
		"stream":   ack.Stream,
		"sequence": ack.Sequence,
	}).Debug("Published event")

	return nil
}

// Close drains and closes the NATS connection
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.logger.Warnf("Failed to drain NATS connection: %v", err)
		p.nc.Close()
	}
	p.logger.Info("NATS publisher connection closed")
}
