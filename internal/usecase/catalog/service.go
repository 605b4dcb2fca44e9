package catalog

import (
	"context"
	"errors"

	"github.com/Pesokrava/perfume_storefront/internal/catalog"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// Cache is the read-through cache for catalog responses
type Cache interface {
	GetProductList(ctx context.Context) ([]domain.Product, error)
	SetProductList(ctx context.Context, products []domain.Product) error
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
}

// Service handles catalog browsing with caching
type Service struct {
	source domain.ProductSource
	cache  Cache
	logger *logger.Logger
}

// NewService creates a new catalog service; cache may be nil
func NewService(source domain.ProductSource, cache Cache, log *logger.Logger) *Service {
	return &Service{
		source: source,
		cache:  cache,
		logger: log,
	}
}

// ListProducts returns the filtered and sorted product collection.
// A catalog failure is returned as an error, never as an empty list.
func (s *Service) ListProducts(ctx context.Context, q catalog.Query) ([]domain.Product, error) {
	products, err := s.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	return catalog.Apply(products, q), nil
}

// GetProduct retrieves a product by ID with caching
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		product, err := s.cache.GetProduct(ctx, id)
		if err == nil {
			s.logger.Debugf("Cache hit for product %s", id)
			return product, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warnf("Failed to read product %s from cache: %v", id, err)
		}
	}

	product, err := s.source.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warnf("Failed to cache product %s: %v", id, err)
		}
	}

	return product, nil
}

// Collections returns every curated collection with up to perCollection products
func (s *Service) Collections(ctx context.Context, perCollection int) ([]catalog.CollectionSample, error) {
	if perCollection <= 0 {
		perCollection = 2
	}

	products, err := s.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	return catalog.CollectionSamples(products, perCollection), nil
}

func (s *Service) allProducts(ctx context.Context) ([]domain.Product, error) {
	if s.cache != nil {
		products, err := s.cache.GetProductList(ctx)
		if err == nil {
			s.logger.Debug("Cache hit for product list")
			return products, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warnf("Failed to read product list from cache: %v", err)
		}
	}

	products, err := s.source.ListProducts(ctx)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProductList(ctx, products); err != nil {
			s.logger.Warnf("Failed to cache product list: %v", err)
		}
	}

	return products, nil
}
