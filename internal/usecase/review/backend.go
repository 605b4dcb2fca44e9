package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Pesokrava/perfume_storefront/internal/catalog"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	pkgvalidator "github.com/Pesokrava/perfume_storefront/internal/pkg/validator"
)

// StorageKey returns the state store key holding a product's reviews
func StorageKey(productID string) string {
	return fmt.Sprintf("product-reviews-%s", productID)
}

// keepValid drops entries whose rating is outside 0..5
func keepValid(productID string, entries []domain.ReviewEntry, log *logger.Logger) []domain.ReviewEntry {
	validate := pkgvalidator.Get()

	kept := make([]domain.ReviewEntry, 0, len(entries))
	for _, e := range entries {
		if err := validate.Struct(e); err != nil {
			log.Warnf("Dropping review of product %s with rating %d: %v", productID, e.Rating, err)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// LocalBackend keeps each product's review list in the state store
type LocalBackend struct {
	storage domain.StateStore
	logger  *logger.Logger
}

// NewLocalBackend creates a state store backed review backend
func NewLocalBackend(storage domain.StateStore, log *logger.Logger) *LocalBackend {
	return &LocalBackend{
		storage: storage,
		logger:  log,
	}
}

// Load reads the stored list; missing or corrupt data is an empty list
func (b *LocalBackend) Load(ctx context.Context, productID string) ([]domain.ReviewEntry, error) {
	data, err := b.storage.Get(ctx, StorageKey(productID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.ReviewEntry{}, nil
		}
		return nil, err
	}

	var entries []domain.ReviewEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		b.logger.Errorf(err, "Discarding unreadable reviews of product %s", productID)
		return []domain.ReviewEntry{}, nil
	}

	return keepValid(productID, entries, b.logger), nil
}

// Append rewrites the full list
func (b *LocalBackend) Append(ctx context.Context, entry domain.ReviewEntry, all []domain.ReviewEntry) error {
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode reviews: %w", err)
	}

	if err := b.storage.Set(ctx, StorageKey(entry.ProductID), data); err != nil {
		return fmt.Errorf("failed to store reviews: %w", err)
	}

	return nil
}

// RatingClient is the part of the catalog API the remote backend relays to
type RatingClient interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	AddRating(ctx context.Context, productID string, rating catalog.RatingRequest) error
}

// RemoteBackend reads ratings from the catalog product and relays submissions to it
type RemoteBackend struct {
	client RatingClient
	logger *logger.Logger
}

// NewRemoteBackend creates a catalog API backed review backend
func NewRemoteBackend(client RatingClient, log *logger.Logger) *RemoteBackend {
	return &RemoteBackend{
		client: client,
		logger: log,
	}
}

// Load maps the product's ratings to review entries, newest first
func (b *RemoteBackend) Load(ctx context.Context, productID string) ([]domain.ReviewEntry, error) {
	product, err := b.client.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ReviewEntry, 0, len(product.Ratings))
	for i := len(product.Ratings) - 1; i >= 0; i-- {
		r := product.Ratings[i]
		entries = append(entries, domain.ReviewEntry{
			ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s/%d", productID, i))),
			ProductID: productID,
			Author:    domain.Identity{Username: r.Username, Email: r.Gmail},
			Rating:    r.Rating,
			Comment:   r.Comment,
		})
	}

	return keepValid(productID, entries, b.logger), nil
}

// Append posts the new rating to the catalog
func (b *RemoteBackend) Append(ctx context.Context, entry domain.ReviewEntry, all []domain.ReviewEntry) error {
	username := entry.Author.Username
	if username == "" {
		username = entry.Author.DisplayName()
	}

	return b.client.AddRating(ctx, entry.ProductID, catalog.RatingRequest{
		Username: username,
		Gmail:    entry.Author.Email,
		Rating:   entry.Rating,
		Comment:  entry.Comment,
	})
}
