package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// KafkaPublisher publishes events to Kafka; the subject is the topic name
type KafkaPublisher struct {
	w      *kafka.Writer
	logger *logger.Logger
}

// NewKafkaPublisher creates a synchronous, fully acknowledged writer
func NewKafkaPublisher(brokers []string, log *logger.Logger) *KafkaPublisher {
	log.WithFields(map[string]interface{}{
		"brokers": brokers,
	}).Info("Using Kafka event publisher")

	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
		logger: log,
	}
}

// Publish writes data to the subject topic, keyed by subject
func (p *KafkaPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: subject,
		Key:   []byte(subject),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to Kafka: %w", err)
	}

	p.logger.Debugf("Published event to Kafka topic %s", subject)
	return nil
}

// Close flushes pending writes
func (p *KafkaPublisher) Close() {
	if err := p.w.Close(); err != nil {
		p.logger.Warnf("Failed to close Kafka writer: %v", err)
		return
	}
	p.logger.Info("Kafka publisher closed")
}

// KafkaConsumer reads one topic as part of a consumer group and commits
// offsets only for handled messages
type KafkaConsumer struct {
	r      *kafka.Reader
	logger *logger.Logger
}

// NewKafkaConsumer creates a group reader for topic
func NewKafkaConsumer(brokers []string, group, topic string, log *logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  group,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		logger: log,
	}
}

// Run feeds messages to handler until ctx is cancelled. A failed message is
// not committed and is delivered again after a rebalance or restart.
func (c *KafkaConsumer) Run(ctx context.Context, handler func(data []byte) error) error {
	c.logger.Infof("Consuming Kafka topic %s", c.r.Config().Topic)

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to fetch Kafka message: %w", err)
		}

		if err := handler(m.Value); err != nil {
			c.logger.Errorf(err, "Failed to handle message on topic %s at offset %d", m.Topic, m.Offset)
			continue
		}

		if err := c.r.CommitMessages(ctx, m); err != nil {
			c.logger.Warnf("Failed to commit offset %d on topic %s: %v", m.Offset, m.Topic, err)
		}
	}
}

// Close closes the reader
func (c *KafkaConsumer) Close() {
	if err := c.r.Close(); err != nil {
		c.logger.Warnf("Failed to close Kafka reader: %v", err)
	}
}
