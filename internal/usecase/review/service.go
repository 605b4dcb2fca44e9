package review

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// EventTypeSubmitted is published after every accepted review
const EventTypeSubmitted = "review.submitted"

// SummaryCache caches per-product review summaries
type SummaryCache interface {
	GetRatingSummary(ctx context.Context, productID string) (domain.ReviewSummary, error)
	SetRatingSummary(ctx context.Context, productID string, summary domain.ReviewSummary) error
	InvalidateRatingSummary(ctx context.Context, productID string) error
}

// ReviewEvent represents an event related to a review
type ReviewEvent struct {
	EventType string              `json:"event_type"`
	Timestamp time.Time           `json:"timestamp"`
	ProductID string              `json:"product_id"`
	Review    *domain.ReviewEntry `json:"review"`
}

// Service owns one review store per product, with caching and event publishing
type Service struct {
	backend   domain.ReviewBackend
	cache     SummaryCache
	publisher domain.EventPublisher
	logger    *logger.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewService creates a new review service; cache and publisher may be nil
func NewService(
	backend domain.ReviewBackend,
	cache SummaryCache,
	publisher domain.EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		backend:   backend,
		cache:     cache,
		publisher: publisher,
		logger:    log,
		stores:    make(map[string]*Store),
	}
}

// List reloads and returns a product's reviews, newest first, with their summary
func (s *Service) List(ctx context.Context, productID string) ([]domain.ReviewEntry, domain.ReviewSummary, error) {
	store := s.storeFor(productID)
	if err := store.Load(ctx); err != nil {
		return nil, domain.ReviewSummary{}, err
	}

	return store.Entries(), store.Summary(), nil
}

// Submit records a review by a signed-in author
func (s *Service) Submit(ctx context.Context, productID string, author domain.Identity, input domain.ReviewInput) (*domain.ReviewEntry, error) {
	if !author.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	store := s.storeFor(productID)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}

	entry, err := store.Submit(ctx, author, input)
	if err != nil {
		return nil, err
	}

	// Stale summaries would show an outdated average until the worker recomputes
	if s.cache != nil {
		if err := s.cache.InvalidateRatingSummary(ctx, productID); err != nil {
			s.logger.Warnf("Failed to invalidate rating summary for product %s: %v", productID, err)
		}
	}

	s.publishEvent(EventTypeSubmitted, entry)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  entry.ID,
		"product_id": productID,
		"rating":     entry.Rating,
	}).Info("Review submitted successfully")

	return entry, nil
}

// Summary returns the cached review summary, computing it on a miss
func (s *Service) Summary(ctx context.Context, productID string) (domain.ReviewSummary, error) {
	if s.cache != nil {
		summary, err := s.cache.GetRatingSummary(ctx, productID)
		if err == nil {
			s.logger.Debugf("Cache hit for product %s rating summary", productID)
			return summary, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warnf("Failed to read rating summary for product %s: %v", productID, err)
		}
	}

	_, summary, err := s.List(ctx, productID)
	if err != nil {
		return domain.ReviewSummary{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetRatingSummary(ctx, productID, summary); err != nil {
			s.logger.Warnf("Failed to cache rating summary for product %s: %v", productID, err)
		}
	}

	return summary, nil
}

func (s *Service) storeFor(productID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.stores[productID]
	if !ok {
		store = NewStore(productID, s.backend, s.logger)
		s.stores[productID] = store
	}
	return store
}

// publishEvent publishes a review event (non-blocking)
func (s *Service) publishEvent(eventType string, entry *domain.ReviewEntry) {
	if s.publisher == nil {
		return
	}

	event := ReviewEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		ProductID: entry.ProductID,
		Review:    entry,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", entry.ID)
		return
	}

	// Publish in background to avoid blocking
	go func() {
		if err := s.publisher.Publish(context.Background(), domain.SubjectReviews, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", entry.ID)
		}
	}()
}
