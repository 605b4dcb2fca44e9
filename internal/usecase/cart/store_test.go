package cart

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	"github.com/Pesokrava/perfume_storefront/internal/repository/memory"
)

// recordingNotifier collects notifications in order
type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) kinds() []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Kind)
	}
	return out
}

// MockResolver is a mock implementation of ProductResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// failingStateStore rejects every write
type failingStateStore struct {
	*memory.StateStore
}

func (f failingStateStore) Set(ctx context.Context, key string, value []byte) error {
	return assert.AnError
}

func p1() *domain.Product {
	return &domain.Product{
		ID:    "P1",
		Name:  "Ethereal Bloom",
		Price: decimal.NewFromInt(40),
		Sizes: []domain.ProductSize{{Size: "50ml", Price: decimal.NewFromInt(50)}},
	}
}

func p2() *domain.Product {
	return &domain.Product{
		ID:    "P2",
		Name:  "Midnight Oud",
		Price: decimal.RequireFromString("199.99"),
	}
}

func newTestStore(opts ...Option) (*Store, *memory.StateStore, *recordingNotifier) {
	storage := memory.NewStateStore()
	notifier := &recordingNotifier{}
	opts = append([]Option{WithNotifier(notifier)}, opts...)
	return NewStore(storage, logger.New("test"), opts...), storage, notifier
}

func assertTotals(t *testing.T, s *Store, items int, price string) {
	t.Helper()
	assert.Equal(t, items, s.TotalItems())
	assert.True(t, decimal.RequireFromString(price).Equal(s.TotalPrice()),
		"expected total %s, got %s", price, s.TotalPrice())
}

func TestStore_WorkedExample(t *testing.T) {
	store, _, notifier := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 1))
	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 2))
	assertTotals(t, store, 3, "150")
	assert.Len(t, store.Items(), 1)

	store.UpdateQuantity(ctx, "P1", "50ml", 1)
	assertTotals(t, store, 1, "50")

	store.RemoveItem(ctx, "P1", "50ml")
	assert.Empty(t, store.Items())
	assertTotals(t, store, 0, "0")

	assert.Equal(t, []domain.NotificationKind{
		domain.NotificationAdded,
		domain.NotificationUpdated,
		domain.NotificationRemoved,
	}, notifier.kinds())
}

func TestStore_AddItem_SamePairMerges(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	for _, q := range []int{1, 4, 2} {
		require.NoError(t, store.AddItem(ctx, p1(), "50ml", q))
	}

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestStore_AddItem_DifferentSizesAreSeparateLines(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 1))
	require.NoError(t, store.AddItem(ctx, p1(), "100ml", 2))

	assert.Len(t, store.Items(), 2)
	// 100ml is not a known variant, so it uses the base price of 40
	assertTotals(t, store, 3, "130")
}

func TestStore_AddItem_InvalidQuantity(t *testing.T) {
	store, storage, notifier := newTestStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.AddItem(ctx, p1(), "50ml", 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.AddItem(ctx, p1(), "50ml", -3), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.AddItem(ctx, nil, "50ml", 1), domain.ErrInvalidInput)

	assert.Empty(t, store.Items())
	assert.Empty(t, notifier.kinds())
	assert.Equal(t, 0, storage.Len())
}

func TestStore_AddItem_StoresSnapshot(t *testing.T) {
	store, _, _ := newTestStore()
	product := p1()

	require.NoError(t, store.AddItem(context.Background(), product, "50ml", 1))
	product.Name = "Renamed"

	assert.Equal(t, "Ethereal Bloom", store.Items()[0].Product.Name)
}

func TestStore_ItemsAreDetached(t *testing.T) {
	store, _, _ := newTestStore()
	require.NoError(t, store.AddItem(context.Background(), p1(), "50ml", 2))

	items := store.Items()
	items[0].Product.Sizes[0].Price = decimal.NewFromInt(1)
	items[0].Product.Price = decimal.NewFromInt(1)
	items[0].Quantity = 40

	snapshot := store.Snapshot()
	snapshot.Items[0].Product.Sizes = nil

	assert.True(t, decimal.NewFromInt(100).Equal(store.TotalPrice()))
	assert.Equal(t, 2, store.TotalItems())
	assert.Equal(t, "50ml", store.Items()[0].Product.Sizes[0].Size)
}

func TestStore_UpdateQuantityZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()

	updated, _, _ := newTestStore()
	removed, _, _ := newTestStore()
	for _, s := range []*Store{updated, removed} {
		require.NoError(t, s.AddItem(ctx, p1(), "50ml", 2))
		require.NoError(t, s.AddItem(ctx, p2(), "", 1))
	}

	updated.UpdateQuantity(ctx, "P1", "50ml", 0)
	removed.RemoveItem(ctx, "P1", "50ml")

	assert.Equal(t, removed.Snapshot(), updated.Snapshot())
}

func TestStore_UpdateQuantity_ReplacesNotIncrements(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 2))
	store.UpdateQuantity(ctx, "P1", "50ml", 5)

	assertTotals(t, store, 5, "250")
}

func TestStore_UpdateQuantity_MissingLineIsNoop(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 2))
	before := store.Snapshot()

	store.UpdateQuantity(ctx, "P9", "50ml", 3)
	store.UpdateQuantity(ctx, "P9", "50ml", -1)

	assert.Equal(t, before, store.Snapshot())
}

func TestStore_RemoveItem_MissingLineIsNoop(t *testing.T) {
	store, _, notifier := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 1))
	before := store.Snapshot()

	assert.NotPanics(t, func() {
		store.RemoveItem(ctx, "P1", "30ml")
		store.RemoveItem(ctx, "missing", "50ml")
	})

	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, []domain.NotificationKind{domain.NotificationAdded}, notifier.kinds())
}

func TestStore_ClearCart(t *testing.T) {
	store, storage, notifier := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 1))
	require.NoError(t, store.AddItem(ctx, p2(), "", 2))
	store.ClearCart(ctx)

	assert.Empty(t, store.Items())
	assertTotals(t, store, 0, "0")
	assert.Contains(t, notifier.kinds(), domain.NotificationCleared)

	data, err := storage.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestStore_PersistsAfterEveryMutation(t *testing.T) {
	store, storage, _ := newTestStore()
	ctx := context.Background()

	stored := func() []domain.CartLineItem {
		data, err := storage.Get(ctx, StorageKey)
		require.NoError(t, err)
		var lines []domain.CartLineItem
		require.NoError(t, json.Unmarshal(data, &lines))
		return lines
	}

	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 1))
	assert.Len(t, stored(), 1)

	require.NoError(t, store.AddItem(ctx, p2(), "", 1))
	assert.Len(t, stored(), 2)

	store.UpdateQuantity(ctx, "P2", "", 4)
	assert.Equal(t, 4, stored()[1].Quantity)

	store.RemoveItem(ctx, "P1", "50ml")
	assert.Len(t, stored(), 1)
}

func TestStore_PersistFailureDoesNotFailOperation(t *testing.T) {
	storage := failingStateStore{memory.NewStateStore()}
	store := NewStore(storage, logger.New("test"))

	err := store.AddItem(context.Background(), p1(), "50ml", 1)

	assert.NoError(t, err)
	assert.Equal(t, 1, store.TotalItems())
}

func TestStore_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, storage, _ := newTestStore()

	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 3))
	require.NoError(t, store.AddItem(ctx, p2(), "", 1))
	want := store.Snapshot()

	restored := NewStore(storage, logger.New("test"))
	result := restored.Load(ctx)

	assert.Equal(t, LoadResult{Restored: 2}, result)
	got := restored.Snapshot()
	assert.Equal(t, want.TotalItems, got.TotalItems)
	assert.True(t, want.TotalPrice.Equal(got.TotalPrice))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "P1", got.Items[0].Product.ID)
	assert.Equal(t, "50ml", got.Items[0].Size)
	assert.Equal(t, 3, got.Items[0].Quantity)
}

func TestStore_Load_DropsUnknownProducts(t *testing.T) {
	ctx := context.Background()
	store, storage, _ := newTestStore()
	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 1))
	require.NoError(t, store.AddItem(ctx, p2(), "", 2))

	resolver := new(MockResolver)
	current := p1()
	current.Sizes[0].Price = decimal.NewFromInt(55)
	resolver.On("GetProduct", mock.Anything, "P1").Return(current, nil)
	resolver.On("GetProduct", mock.Anything, "P2").Return(nil, domain.ErrNotFound)

	restored := NewStore(storage, logger.New("test"), WithResolver(resolver))
	result := restored.Load(ctx)

	assert.Equal(t, LoadResult{Restored: 1, Dropped: 1}, result)
	assertTotals(t, restored, 1, "55")
	resolver.AssertExpectations(t)
}

func TestStore_Load_ResolverFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	store, storage, _ := newTestStore()
	require.NoError(t, store.AddItem(ctx, p1(), "50ml", 2))

	resolver := new(MockResolver)
	resolver.On("GetProduct", mock.Anything, "P1").Return(nil, assert.AnError)

	restored := NewStore(storage, logger.New("test"), WithResolver(resolver))
	result := restored.Load(ctx)

	assert.Equal(t, LoadResult{Restored: 1}, result)
	assertTotals(t, restored, 2, "100")
}

func TestStore_Load_DropsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStateStore()
	require.NoError(t, storage.Set(ctx, StorageKey, []byte(`[
		{"product": null, "size": "50ml", "quantity": 1},
		{"product": {"name": "no id", "price": 10}, "size": "50ml", "quantity": 1},
		{"product": {"_id": "P1", "price": 10}, "size": "", "quantity": 0},
		{"product": {"_id": "P1", "price": 10}, "size": "", "quantity": 2},
		{"product": {"_id": "P1", "price": 10}, "size": "", "quantity": 1}
	]`)))

	store := NewStore(storage, logger.New("test"))
	result := store.Load(ctx)

	assert.Equal(t, LoadResult{Restored: 2, Dropped: 3}, result)
	require.Len(t, store.Items(), 1, "duplicate pairs are merged")
	assertTotals(t, store, 3, "30")
}

func TestStore_Load_CorruptStateFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStateStore()
	require.NoError(t, storage.Set(ctx, StorageKey, []byte(`{not json`)))

	store := NewStore(storage, logger.New("test"))

	var result LoadResult
	assert.NotPanics(t, func() { result = store.Load(ctx) })
	assert.Equal(t, LoadResult{}, result)
	assert.Empty(t, store.Items())
}

func TestStore_Load_NothingStored(t *testing.T) {
	store, _, _ := newTestStore()

	assert.Equal(t, LoadResult{}, store.Load(context.Background()))
	assert.Empty(t, store.Items())
}

func TestStore_TotalsMatchModelAfterRandomOperations(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	products := []*domain.Product{p1(), p2()}
	sizes := []string{"50ml", "100ml", ""}

	type key struct{ id, size string }

	for run := 0; run < 50; run++ {
		store, _, _ := newTestStore()
		model := map[key]int{}

		for op := 0; op < 40; op++ {
			product := products[rng.Intn(len(products))]
			size := sizes[rng.Intn(len(sizes))]
			k := key{product.ID, size}

			switch rng.Intn(4) {
			case 0:
				q := rng.Intn(3) + 1
				require.NoError(t, store.AddItem(ctx, product, size, q))
				model[k] += q
			case 1:
				store.RemoveItem(ctx, product.ID, size)
				delete(model, k)
			case 2:
				q := rng.Intn(4) - 1
				store.UpdateQuantity(ctx, product.ID, size, q)
				if q < 1 {
					delete(model, k)
				} else if _, ok := model[k]; ok {
					model[k] = q
				}
			case 3:
				if rng.Intn(10) == 0 {
					store.ClearCart(ctx)
					model = map[key]int{}
				}
			}

			wantItems := 0
			wantPrice := decimal.Zero
			for k, q := range model {
				wantItems += q
				for _, p := range products {
					if p.ID == k.id {
						wantPrice = wantPrice.Add(p.UnitPrice(k.size).Mul(decimal.NewFromInt(int64(q))))
					}
				}
			}

			items := store.Items()
			require.Len(t, items, len(model))
			for _, line := range items {
				require.GreaterOrEqual(t, line.Quantity, 1)
				require.Equal(t, model[key{line.Product.ID, line.Size}], line.Quantity)
			}
			require.Equal(t, wantItems, store.TotalItems())
			require.True(t, wantPrice.Equal(store.TotalPrice()))
		}
	}
}

func TestStore_ConcurrentAdds(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.AddItem(ctx, p1(), "50ml", 1)
		}()
	}
	wg.Wait()

	assert.Len(t, store.Items(), 1)
	assertTotals(t, store, 20, "1000")
}
