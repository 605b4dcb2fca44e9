package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

const (
	// Events for the same product within this window collapse into one update
	debounceWindow = 1 * time.Second

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	attemptTimeout = 5 * time.Second
)

var errMissingProduct = errors.New("event has no product_id")

// ReviewEvent is the part of a storefront review event the worker needs
type ReviewEvent struct {
	EventType string    `json:"event_type"`
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Updater recomputes the rating summary of one product
type Updater interface {
	CalculateAndUpdate(ctx context.Context, productID string) error
}

// RatingWorker debounces review events per product and refreshes their
// rating summaries in the background
type RatingWorker struct {
	updater Updater
	logger  *logger.Logger

	mu         sync.Mutex
	pending    map[string]*pendingUpdate
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

type pendingUpdate struct {
	timestamp time.Time
	timer     *time.Timer
}

// NewRatingWorker creates a new rating worker
func NewRatingWorker(updater Updater, log *logger.Logger) *RatingWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &RatingWorker{
		updater:    updater,
		logger:     log,
		pending:    make(map[string]*pendingUpdate),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// HandleEvent decodes a review event and schedules its product's update
func (w *RatingWorker) HandleEvent(data []byte) error {
	var event ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.ProductID == "" {
		return errMissingProduct
	}

	w.logger.WithFields(map[string]any{
		"event_type": event.EventType,
		"product_id": event.ProductID,
		"timestamp":  event.Timestamp,
	}).Debug("Received review event")

	w.schedule(event.ProductID, event.Timestamp)
	return nil
}

// schedule (re)starts the debounce timer of productID. Events older than
// the pending one are ignored.
func (w *RatingWorker) schedule(productID string, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Debugf("Worker shutting down, ignoring event for product %s", productID)
		return
	default:
	}

	if existing, ok := w.pending[productID]; ok {
		if timestamp.Before(existing.timestamp) {
			w.logger.Debugf("Ignoring stale event for product %s", productID)
			return
		}
		// A stopped timer still owes its wg slot to the replacement below
		if !existing.timer.Stop() {
			w.wg.Add(1)
		}
	} else {
		w.wg.Add(1)
	}

	p := &pendingUpdate{timestamp: timestamp}
	p.timer = time.AfterFunc(debounceWindow, func() {
		w.process(productID, p)
	})
	w.pending[productID] = p
}

// process runs the update with exponential backoff between attempts. The
// pending entry is cleared only while it is still p; a timer that fired
// during schedule must not remove its replacement.
func (w *RatingWorker) process(productID string, p *pendingUpdate) {
	defer w.wg.Done()

	w.mu.Lock()
	if w.pending[productID] == p {
		delete(w.pending, productID)
	}
	w.mu.Unlock()

	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]any{
				"product_id": productID,
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying rating update")

			select {
			case <-time.After(backoff):
			case <-w.ctx.Done():
				return
			}
			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(w.ctx, attemptTimeout)
		err := w.updater.CalculateAndUpdate(ctx, productID)
		cancel()
		if err == nil {
			return
		}
		lastErr = err
	}

	w.logger.WithFields(map[string]any{
		"product_id":  productID,
		"max_retries": maxRetries,
	}).Error("Rating update failed after all retries", lastErr)
}

// Shutdown stops accepting events, cancels pending timers and waits for
// in-flight updates until ctx expires
func (w *RatingWorker) Shutdown(ctx context.Context) error {
	close(w.shutdownCh)
	w.cancel()

	w.mu.Lock()
	cancelled := 0
	for id, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
			cancelled++
		}
		delete(w.pending, id)
	}
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_updates": cancelled,
	}).Info("Rating worker shutting down")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, abandoning in-flight updates")
		return ctx.Err()
	}
}

// PendingCount returns the number of scheduled, not yet started updates
func (w *RatingWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
