package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/perfume_storefront/internal/catalog"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	"github.com/Pesokrava/perfume_storefront/internal/repository/memory"
)

// MockRatingClient is a mock implementation of RatingClient
type MockRatingClient struct {
	mock.Mock
}

func (m *MockRatingClient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockRatingClient) AddRating(ctx context.Context, productID string, rating catalog.RatingRequest) error {
	args := m.Called(ctx, productID, rating)
	return args.Error(0)
}

func TestLocalBackend_CorruptDataIsEmpty(t *testing.T) {
	storage := memory.NewStateStore()
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, StorageKey("P1"), []byte(`[{"rating": "five"`)))

	backend := NewLocalBackend(storage, logger.New("test"))
	entries, err := backend.Load(ctx, "P1")

	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalBackend_UsesPerProductKey(t *testing.T) {
	storage := memory.NewStateStore()
	ctx := context.Background()
	backend := NewLocalBackend(storage, logger.New("test"))

	entry := domain.ReviewEntry{ProductID: "P7", Rating: 5, Comment: "Great"}
	require.NoError(t, backend.Append(ctx, entry, []domain.ReviewEntry{entry}))

	_, err := storage.Get(ctx, "product-reviews-P7")
	assert.NoError(t, err)

	entries, err := backend.Load(ctx, "P8")
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalBackend_DropsOutOfRangeRatings(t *testing.T) {
	storage := memory.NewStateStore()
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, StorageKey("P1"),
		[]byte(`[{"rating":9,"comment":"a"},{"rating":4,"comment":"b"},{"rating":-3,"comment":"c"},{"rating":0,"comment":"d"}]`)))

	backend := NewLocalBackend(storage, logger.New("test"))
	entries, err := backend.Load(ctx, "P1")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Comment)
	assert.Equal(t, "d", entries[1].Comment)

	summary := domain.Summarize(entries)
	assert.Equal(t, 2.0, summary.AverageRating)
	assert.Equal(t, 2, summary.Stars)
}

func TestRemoteBackend_DropsOutOfRangeRatings(t *testing.T) {
	client := new(MockRatingClient)
	backend := NewRemoteBackend(client, logger.New("test"))

	client.On("GetProduct", mock.Anything, "P1").Return(&domain.Product{
		ID: "P1",
		Ratings: []domain.RatingEntry{
			{Username: "ok", Rating: 5},
			{Username: "spam", Rating: 9},
		},
	}, nil)

	entries, err := backend.Load(context.Background(), "P1")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok", entries[0].Author.Username)
	client.AssertExpectations(t)
}

func TestRemoteBackend_Load(t *testing.T) {
	client := new(MockRatingClient)
	backend := NewRemoteBackend(client, logger.New("test"))

	client.On("GetProduct", mock.Anything, "P1").Return(&domain.Product{
		ID: "P1",
		Ratings: []domain.RatingEntry{
			{Username: "old", Gmail: "old@gmail.com", Rating: 2},
			{Username: "new", Gmail: "new@gmail.com", Rating: 5, Comment: "Stunning"},
		},
	}, nil)

	entries, err := backend.Load(context.Background(), "P1")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new", entries[0].Author.Username)
	assert.Equal(t, "new@gmail.com", entries[0].Author.Email)
	assert.Equal(t, "Stunning", entries[0].Comment)
	assert.Equal(t, "old", entries[1].Author.Username)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestRemoteBackend_Load_Failure(t *testing.T) {
	client := new(MockRatingClient)
	backend := NewRemoteBackend(client, logger.New("test"))

	client.On("GetProduct", mock.Anything, "P1").Return(nil, catalog.ErrCatalogUnavailable)

	_, err := backend.Load(context.Background(), "P1")

	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
}

func TestRemoteBackend_Append(t *testing.T) {
	client := new(MockRatingClient)
	backend := NewRemoteBackend(client, logger.New("test"))

	client.On("AddRating", mock.Anything, "P1", catalog.RatingRequest{
		Username: "jane",
		Gmail:    "jane@example.com",
		Rating:   4,
		Comment:  "Warm and spicy",
	}).Return(nil)

	entry := domain.ReviewEntry{ProductID: "P1", Author: jane, Rating: 4, Comment: "Warm and spicy"}
	err := backend.Append(context.Background(), entry, []domain.ReviewEntry{entry})

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestRemoteBackend_Append_FallsBackToDisplayName(t *testing.T) {
	client := new(MockRatingClient)
	backend := NewRemoteBackend(client, logger.New("test"))

	client.On("AddRating", mock.Anything, "P1", mock.MatchedBy(func(r catalog.RatingRequest) bool {
		return r.Username == "Jane Doe" && r.Gmail == "jane@example.com"
	})).Return(nil)

	author := domain.Identity{Name: "Jane Doe", Email: "jane@example.com"}
	entry := domain.ReviewEntry{ProductID: "P1", Author: author, Rating: 5, Comment: "Yes"}

	assert.NoError(t, backend.Append(context.Background(), entry, nil))
	client.AssertExpectations(t)
}
