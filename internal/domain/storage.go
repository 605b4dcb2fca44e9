package domain

import "context"

// StateStore is a durable key-value store for session state
// (cart lines, locally persisted reviews).
type StateStore interface {
	// Get returns the raw value for key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// ProductSource fetches catalog products
type ProductSource interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
}
