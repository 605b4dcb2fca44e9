package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// MockReviewBackend is a mock implementation of domain.ReviewBackend
type MockReviewBackend struct {
	mock.Mock
}

func (m *MockReviewBackend) Load(ctx context.Context, productID string) ([]domain.ReviewEntry, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewEntry), args.Error(1)
}

func (m *MockReviewBackend) Append(ctx context.Context, entry domain.ReviewEntry, all []domain.ReviewEntry) error {
	args := m.Called(ctx, entry, all)
	return args.Error(0)
}

// MockSummaryStore is a mock implementation of SummaryStore
type MockSummaryStore struct {
	mock.Mock
}

func (m *MockSummaryStore) SetRatingSummary(ctx context.Context, productID string, summary domain.ReviewSummary) error {
	args := m.Called(ctx, productID, summary)
	return args.Error(0)
}

func TestCalculator_CalculateAndUpdate_Success(t *testing.T) {
	reviews := new(MockReviewBackend)
	store := new(MockSummaryStore)
	calc := NewCalculator(reviews, store, logger.New("test"))

	reviews.On("Load", mock.Anything, "P1").Return([]domain.ReviewEntry{{Rating: 5}, {Rating: 4}}, nil)
	store.On("SetRatingSummary", mock.Anything, "P1", domain.ReviewSummary{
		AverageRating: 4.5,
		TotalCount:    2,
		Stars:         5,
	}).Return(nil)

	err := calc.CalculateAndUpdate(context.Background(), "P1")

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestCalculator_CalculateAndUpdate_NoReviews(t *testing.T) {
	reviews := new(MockReviewBackend)
	store := new(MockSummaryStore)
	calc := NewCalculator(reviews, store, logger.New("test"))

	reviews.On("Load", mock.Anything, "P1").Return([]domain.ReviewEntry{}, nil)
	store.On("SetRatingSummary", mock.Anything, "P1", domain.ReviewSummary{}).Return(nil)

	assert.NoError(t, calc.CalculateAndUpdate(context.Background(), "P1"))
	store.AssertExpectations(t)
}

func TestCalculator_CalculateAndUpdate_LoadError(t *testing.T) {
	reviews := new(MockReviewBackend)
	store := new(MockSummaryStore)
	calc := NewCalculator(reviews, store, logger.New("test"))

	reviews.On("Load", mock.Anything, "P1").Return(nil, assert.AnError)

	err := calc.CalculateAndUpdate(context.Background(), "P1")

	assert.ErrorIs(t, err, assert.AnError)
	store.AssertNotCalled(t, "SetRatingSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestCalculator_CalculateAndUpdate_StoreError(t *testing.T) {
	reviews := new(MockReviewBackend)
	store := new(MockSummaryStore)
	calc := NewCalculator(reviews, store, logger.New("test"))

	reviews.On("Load", mock.Anything, "P1").Return([]domain.ReviewEntry{{Rating: 3}}, nil)
	store.On("SetRatingSummary", mock.Anything, "P1", mock.Anything).Return(assert.AnError)

	err := calc.CalculateAndUpdate(context.Background(), "P1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rating summary")
}
