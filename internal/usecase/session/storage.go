package session

import (
	"context"
	"fmt"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
)

// scopedStore prefixes every key with the owning session
type scopedStore struct {
	base   domain.StateStore
	prefix string
}

func newScopedStore(base domain.StateStore, sessionID string) *scopedStore {
	return &scopedStore{
		base:   base,
		prefix: fmt.Sprintf("session:%s:", sessionID),
	}
}

func (s *scopedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.base.Get(ctx, s.prefix+key)
}

func (s *scopedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.base.Set(ctx, s.prefix+key, value)
}

func (s *scopedStore) Delete(ctx context.Context, key string) error {
	return s.base.Delete(ctx, s.prefix+key)
}
