package worker

import (
	"context"
	"fmt"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// SummaryStore receives recomputed rating summaries
type SummaryStore interface {
	SetRatingSummary(ctx context.Context, productID string, summary domain.ReviewSummary) error
}

// Calculator recomputes a product's rating summary from its full review list
type Calculator struct {
	reviews domain.ReviewBackend
	store   SummaryStore
	logger  *logger.Logger
}

// NewCalculator creates a new rating calculator
func NewCalculator(reviews domain.ReviewBackend, store SummaryStore, log *logger.Logger) *Calculator {
	return &Calculator{
		reviews: reviews,
		store:   store,
		logger:  log,
	}
}

// CalculateAndUpdate reloads every review of productID and stores the
// resulting summary. Full recalculation keeps the cached value self-correcting.
func (c *Calculator) CalculateAndUpdate(ctx context.Context, productID string) error {
	entries, err := c.reviews.Load(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}

	summary := domain.Summarize(entries)
	if err := c.store.SetRatingSummary(ctx, productID, summary); err != nil {
		return fmt.Errorf("failed to store rating summary: %w", err)
	}

	c.logger.WithFields(map[string]any{
		"product_id":     productID,
		"average_rating": summary.AverageRating,
		"total_count":    summary.TotalCount,
	}).Info("Updated rating summary")

	return nil
}
