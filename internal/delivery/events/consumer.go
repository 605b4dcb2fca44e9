package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/perfume_storefront/internal/config"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// Consumer subscribes to storefront subjects on core NATS
type Consumer struct {
	nc     *nats.Conn
	logger *logger.Logger
	subs   []*nats.Subscription
}

// NewConsumer creates a new NATS consumer
func NewConsumer(cfg *config.Config, log *logger.Logger) (*Consumer, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("storefront-notifier"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Infof("Connected to NATS at %s", cfg.NATS.URL)

	return &Consumer{
		nc:     nc,
		logger: log,
	}, nil
}

// Subscribe delivers every message on subject (wildcards allowed) to handler
func (c *Consumer) Subscribe(subject string, handler func(data []byte) error) error {
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			c.logger.Errorf(err, "Failed to handle message on subject %s", msg.Subject)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	c.subs = append(c.subs, sub)
	c.logger.Infof("Subscribed to NATS subject: %s", subject)
	return nil
}

// Close unsubscribes and closes the NATS connection
func (c *Consumer) Close() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warnf("Failed to unsubscribe from %s: %v", sub.Subject, err)
		}
	}
	if c.nc != nil {
		c.nc.Close()
		c.logger.Info("NATS consumer connection closed")
	}
}

// envelope holds the fields common to every storefront event
type envelope struct {
	EventType string `json:"event_type"`
	SessionID string `json:"session_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`
}

// LoggingHandler logs each storefront event with its identifying fields
func LoggingHandler(log *logger.Logger) func(data []byte) error {
	return func(data []byte) error {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}

		fields := map[string]interface{}{
			"event_type": env.EventType,
			"payload":    json.RawMessage(data),
		}
		if env.SessionID != "" {
			fields["session_id"] = env.SessionID
		}
		if env.ProductID != "" {
			fields["product_id"] = env.ProductID
		}

		log.WithFields(fields).Info("Storefront event")
		return nil
	}
}
