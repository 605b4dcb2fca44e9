package domain

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// Identity is the signed-in user behind an authenticated request
type Identity struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
}

// Authenticated reports whether the identity carries a user
func (i Identity) Authenticated() bool {
	return i.Username != "" || i.Email != ""
}

// DisplayName prefers the full name, then the username, then the email
func (i Identity) DisplayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.Username != "":
		return i.Username
	}
	return i.Email
}

// ReviewEntry represents a product review
type ReviewEntry struct {
	ID        uuid.UUID `json:"id"`
	ProductID string    `json:"product_id"`
	Author    Identity  `json:"author"`
	Rating    int       `json:"rating" validate:"min=0,max=5"`
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewInput is what a signed-in user submits
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title,omitempty" validate:"max=200"`
	Comment string `json:"comment" validate:"required,min=1,max=5000"`
}

// ReviewSummary contains aggregate review statistics for a product
type ReviewSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalCount    int     `json:"total_count"`
	Stars         int     `json:"stars"`
}

// Summarize computes the arithmetic mean of all ratings, 0 when empty
func Summarize(entries []ReviewEntry) ReviewSummary {
	if len(entries) == 0 {
		return ReviewSummary{}
	}

	sum := 0
	for _, e := range entries {
		sum += e.Rating
	}
	avg := float64(sum) / float64(len(entries))

	return ReviewSummary{
		AverageRating: avg,
		TotalCount:    len(entries),
		Stars:         int(math.Round(avg)),
	}
}

// ReviewBackend loads and persists the reviews of one product
type ReviewBackend interface {
	// Load returns the product's reviews, newest first
	Load(ctx context.Context, productID string) ([]ReviewEntry, error)

	// Append persists a new entry; all is the full list including it, newest first
	Append(ctx context.Context, entry ReviewEntry, all []ReviewEntry) error
}
