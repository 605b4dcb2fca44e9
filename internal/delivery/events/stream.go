package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

const (
	// StreamName is the JetStream stream holding every storefront event
	StreamName = "STOREFRONT"

	// StreamSubjects covers storefront.cart and storefront.reviews
	StreamSubjects = "storefront.>"

	// RatingConsumer is the durable consumer of the rating worker
	RatingConsumer = "rating-worker"

	// MaxDeliveryAttempts bounds redeliveries; a later review event recomputes anyway
	MaxDeliveryAttempts = 3

	// AckWait is how long a delivery may stay unacknowledged
	AckWait = 30 * time.Second

	streamMaxAge = 24 * time.Hour
)

// StreamConfig provisions the storefront stream and its consumers
type StreamConfig struct {
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewStreamConfig creates a new stream configuration helper
func NewStreamConfig(js nats.JetStreamContext, log *logger.Logger) *StreamConfig {
	return &StreamConfig{
		js:     js,
		logger: log,
	}
}

// backoffSchedule returns the redelivery delays 1s, 2s, 4s, ... for
// maxDeliveries attempts; the first delivery is immediate
func backoffSchedule(maxDeliveries int) []time.Duration {
	if maxDeliveries <= 1 {
		return nil
	}

	schedule := make([]time.Duration, maxDeliveries-1)
	for i := range schedule {
		schedule[i] = time.Duration(1<<i) * time.Second
	}
	return schedule
}

// EnsureStream creates the storefront stream when it does not exist.
// Events are kept for a day under a limits policy so several consumers
// (rating worker, notifier replays) can read the same messages.
func (s *StreamConfig) EnsureStream() error {
	info, err := s.js.StreamInfo(StreamName)
	if err == nil {
		s.logger.WithFields(map[string]any{
			"stream":   info.Config.Name,
			"messages": info.State.Msgs,
		}).Debug("JetStream stream already exists")
		return nil
	}

	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	_, err = s.js.AddStream(&nats.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{StreamSubjects},
		Retention:   nats.LimitsPolicy,
		Storage:     nats.FileStorage,
		Replicas:    1,
		MaxAge:      streamMaxAge,
		Discard:     nats.DiscardOld,
		Description: "Storefront cart and review events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"stream":   StreamName,
		"subjects": StreamSubjects,
	}).Info("JetStream stream created")
	return nil
}

// EnsureRatingConsumer creates the durable, explicitly acknowledged consumer
// of review events
func (s *StreamConfig) EnsureRatingConsumer() error {
	info, err := s.js.ConsumerInfo(StreamName, RatingConsumer)
	if err == nil {
		s.logger.WithFields(map[string]any{
			"consumer":    info.Name,
			"pending":     info.NumPending,
			"ack_pending": info.NumAckPending,
		}).Debug("JetStream consumer already exists")
		return nil
	}

	if !errors.Is(err, nats.ErrConsumerNotFound) {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}

	_, err = s.js.AddConsumer(StreamName, &nats.ConsumerConfig{
		Durable:       RatingConsumer,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       AckWait,
		MaxDeliver:    MaxDeliveryAttempts,
		FilterSubject: domain.SubjectReviews,
		BackOff:       backoffSchedule(MaxDeliveryAttempts),
		Description:   "Recomputes rating summaries from review events",
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"stream":   StreamName,
		"consumer": RatingConsumer,
	}).Info("JetStream consumer created")
	return nil
}
