package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// StorageKey is the state store key the cart lines are persisted under
const StorageKey = "cart"

// ProductResolver refreshes product snapshots when a cart is restored
type ProductResolver interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// LoadResult reports what Load restored from the state store
type LoadResult struct {
	Restored int `json:"restored"`
	Dropped  int `json:"dropped"`
}

// Store is the single source of truth for one shopping cart.
// Totals are derived from the lines on every read.
type Store struct {
	mu       sync.Mutex
	lines    []domain.CartLineItem
	storage  domain.StateStore
	key      string
	resolver ProductResolver
	notifier domain.Notifier
	logger   *logger.Logger
}

// Option configures a Store
type Option func(*Store)

// WithResolver refreshes product snapshots through r on Load
func WithResolver(r ProductResolver) Option {
	return func(s *Store) {
		s.resolver = r
	}
}

// WithNotifier delivers cart notifications to n
func WithNotifier(n domain.Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// NewStore creates an empty cart persisted to storage
func NewStore(storage domain.StateStore, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		lines:   []domain.CartLineItem{},
		storage: storage,
		key:     StorageKey,
		logger:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem adds quantity of product in size. An existing (product, size) line
// is incremented instead of duplicated.
func (s *Store) AddItem(ctx context.Context, product *domain.Product, size string, quantity int) error {
	if product == nil || product.ID == "" || quantity < 1 {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note := domain.Notification{ProductID: product.ID, Size: size}
	if i := s.indexOf(product.ID, size); i >= 0 {
		s.lines[i].Quantity += quantity
		note.Kind = domain.NotificationUpdated
		note.Title = "Item updated"
		note.Description = fmt.Sprintf("%s quantity increased", product.Name)
	} else {
		s.lines = append(s.lines, domain.CartLineItem{Product: product.Clone(), Size: size, Quantity: quantity})
		note.Kind = domain.NotificationAdded
		note.Title = "Item added to cart"
		note.Description = fmt.Sprintf("%s has been added to your cart", product.Name)
	}

	s.persist(ctx)
	s.notify(ctx, note)
	return nil
}

// RemoveItem deletes the (productID, size) line. Removing an absent line is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID, size string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(ctx, productID, size)
}

// UpdateQuantity replaces the quantity of the (productID, size) line.
// A quantity below 1 removes the line; an absent line is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID, size string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		s.removeLocked(ctx, productID, size)
		return
	}

	i := s.indexOf(productID, size)
	if i < 0 || s.lines[i].Quantity == quantity {
		return
	}

	s.lines[i].Quantity = quantity
	s.persist(ctx)
}

// ClearCart empties the cart
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = []domain.CartLineItem{}
	s.persist(ctx)
	s.notify(ctx, domain.Notification{
		Kind:        domain.NotificationCleared,
		Title:       "Cart cleared",
		Description: "All items have been removed from your cart",
	})
}

// Items returns a copy of the cart lines
func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLines()
}

// TotalItems is the sum of all line quantities
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.TotalItems(s.lines)
}

// TotalPrice is the sum of resolved unit price times quantity over all lines
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.TotalPrice(s.lines)
}

// Snapshot returns the lines with their totals, computed under one lock
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.NewCartSnapshot(s.copyLines())
}

// Load replaces the cart with the state persisted under the store's key.
// It never fails: unreadable state yields an empty cart, and lines whose
// product cannot be resolved are dropped.
func (s *Store) Load(ctx context.Context) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = []domain.CartLineItem{}

	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Errorf(err, "Failed to read cart %s, starting empty", s.key)
		}
		return LoadResult{}
	}

	var saved []domain.CartLineItem
	if err := json.Unmarshal(data, &saved); err != nil {
		s.logger.Errorf(err, "Failed to parse cart %s, starting empty", s.key)
		return LoadResult{}
	}

	var result LoadResult
	for _, line := range saved {
		if line.Product == nil || line.Product.ID == "" || line.Quantity < 1 {
			result.Dropped++
			continue
		}

		if s.resolver != nil {
			current, err := s.resolver.GetProduct(ctx, line.Product.ID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				s.logger.Debugf("Dropping cart line for unknown product %s", line.Product.ID)
				result.Dropped++
				continue
			case err != nil:
				s.logger.Warnf("Keeping stored snapshot of product %s: %v", line.Product.ID, err)
			default:
				line.Product = current.Clone()
			}
		}

		if i := s.indexOf(line.Product.ID, line.Size); i >= 0 {
			s.lines[i].Quantity += line.Quantity
		} else {
			s.lines = append(s.lines, line)
		}
		result.Restored++
	}

	s.logger.WithFields(map[string]interface{}{
		"key":      s.key,
		"restored": result.Restored,
		"dropped":  result.Dropped,
	}).Debug("Cart restored")

	return result
}

func (s *Store) removeLocked(ctx context.Context, productID, size string) {
	i := s.indexOf(productID, size)
	if i < 0 {
		return
	}

	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persist(ctx)
	s.notify(ctx, domain.Notification{
		Kind:        domain.NotificationRemoved,
		Title:       "Item removed",
		Description: "Item has been removed from your cart",
		ProductID:   productID,
		Size:        size,
	})
}

func (s *Store) indexOf(productID, size string) int {
	for i, line := range s.lines {
		if line.Matches(productID, size) {
			return i
		}
	}
	return -1
}

// copyLines returns lines whose products are detached from the store
func (s *Store) copyLines() []domain.CartLineItem {
	out := make([]domain.CartLineItem, len(s.lines))
	for i, line := range s.lines {
		line.Product = line.Product.Clone()
		out[i] = line
	}
	return out
}

// persist writes the full line list; a failed write leaves the in-memory cart authoritative
func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.lines)
	if err != nil {
		s.logger.Errorf(err, "Failed to encode cart %s", s.key)
		return
	}

	if err := s.storage.Set(ctx, s.key, data); err != nil {
		s.logger.Errorf(err, "Failed to persist cart %s", s.key)
	}
}

func (s *Store) notify(ctx context.Context, n domain.Notification) {
	if s.notifier == nil {
		return
	}
	n.CreatedAt = time.Now()
	s.notifier.Notify(ctx, n)
}
