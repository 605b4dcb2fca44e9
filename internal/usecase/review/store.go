package review

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	pkgvalidator "github.com/Pesokrava/perfume_storefront/internal/pkg/validator"
)

// Store holds the reviews of a single product, newest first
type Store struct {
	mu        sync.Mutex
	productID string
	entries   []domain.ReviewEntry
	backend   domain.ReviewBackend
	validate  *validator.Validate
	logger    *logger.Logger
	now       func() time.Time
}

// NewStore creates an empty review store for productID
func NewStore(productID string, backend domain.ReviewBackend, log *logger.Logger) *Store {
	return &Store{
		productID: productID,
		entries:   []domain.ReviewEntry{},
		backend:   backend,
		validate:  pkgvalidator.Get(),
		logger:    log,
		now:       time.Now,
	}
}

// Load replaces the in-memory entries with the backend's. The lock is held
// across the read so a slower Load cannot overwrite a newer Submit.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.backend.Load(ctx, s.productID)
	if err != nil {
		s.logger.Errorf(err, "Failed to load reviews for product %s", s.productID)
		return err
	}

	s.entries = entries
	if s.entries == nil {
		s.entries = []domain.ReviewEntry{}
	}
	return nil
}

// Submit prepends a review by the signed-in author. The entry is kept only
// when the backend accepted it.
func (s *Store) Submit(ctx context.Context, author domain.Identity, input domain.ReviewInput) (*domain.ReviewEntry, error) {
	if !author.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	if err := s.validate.Struct(input); err != nil {
		s.logger.Error("Review validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := domain.ReviewEntry{
		ID:        uuid.New(),
		ProductID: s.productID,
		Author:    author,
		Rating:    input.Rating,
		Title:     input.Title,
		Comment:   input.Comment,
		CreatedAt: s.now().UTC(),
	}

	all := make([]domain.ReviewEntry, 0, len(s.entries)+1)
	all = append(all, entry)
	all = append(all, s.entries...)

	if err := s.backend.Append(ctx, entry, all); err != nil {
		s.logger.Errorf(err, "Failed to persist review for product %s", s.productID)
		return nil, err
	}

	s.entries = all
	return &entry, nil
}

// Entries returns a copy of the reviews, newest first
func (s *Store) Entries() []domain.ReviewEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ReviewEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Summary computes the average rating of the loaded reviews
func (s *Store) Summary() domain.ReviewSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Summarize(s.entries)
}
