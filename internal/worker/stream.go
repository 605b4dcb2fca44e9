package worker

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

const (
	fetchBatch   = 10
	fetchWait    = 5 * time.Second
	fetchBackoff = 5 * time.Second
)

// Fetcher pulls batches from a durable JetStream consumer
type Fetcher interface {
	Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error)
}

// Acknowledger settles a delivered message
type Acknowledger interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
}

// ConsumeJetStream pulls review events until ctx is done. Handled messages
// are acked; failures are nacked and redelivered with the consumer backoff.
func ConsumeJetStream(ctx context.Context, sub Fetcher, handle func(data []byte) error, log *logger.Logger) {
	for ctx.Err() == nil {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchWait)
		msgs, err := sub.Fetch(fetchBatch, nats.Context(fetchCtx))
		cancel()
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Error("Failed to fetch messages from JetStream", err)
			sleep(ctx, fetchBackoff)
			continue
		}

		for _, msg := range msgs {
			settle(msg, handle(msg.Data), log)
		}
	}
}

func settle(msg Acknowledger, handleErr error, log *logger.Logger) {
	if handleErr != nil {
		log.Error("Failed to handle review event", handleErr)
		if err := msg.Nak(); err != nil {
			log.Error("Failed to NACK message", err)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		log.Error("Failed to ACK message", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
