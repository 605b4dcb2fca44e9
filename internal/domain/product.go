package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Category is the closed set of product categories
type Category string

const (
	CategoryMen    Category = "men"
	CategoryWomen  Category = "women"
	CategoryUnisex Category = "unisex"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryMen, CategoryWomen, CategoryUnisex:
		return true
	}
	return false
}

// ProductSize is a size variant with its own price
type ProductSize struct {
	Size  string          `json:"size"`
	Price decimal.Decimal `json:"price"`
}

// RatingEntry is a rating stored on the remote catalog product
type RatingEntry struct {
	Username string `json:"username"`
	Gmail    string `json:"gmail"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment,omitempty"`
}

// Product represents a catalog product as served by the remote catalog API
type Product struct {
	ID               string          `json:"_id"`
	Name             string          `json:"name"`
	Brand            string          `json:"brand"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"shortDescription"`
	Price            decimal.Decimal `json:"price"`
	Sizes            []ProductSize   `json:"sizes"`
	Images           []string        `json:"images"`
	Category         Category        `json:"category"`
	Featured         bool            `json:"featured"`
	New              bool            `json:"new"`
	Ratings          []RatingEntry   `json:"ratings,omitempty"`
	AvgRating        float64         `json:"avgRating"`
	NumRatings       int             `json:"numRatings"`
}

// Clone returns a deep copy of the product
func (p *Product) Clone() *Product {
	c := *p
	c.Sizes = slices.Clone(p.Sizes)
	c.Images = slices.Clone(p.Images)
	c.Ratings = slices.Clone(p.Ratings)
	return &c
}

// UnitPrice resolves the price for a size: the matching size variant's price,
// or the base price when no variant matches.
func (p *Product) UnitPrice(size string) decimal.Decimal {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Price
		}
	}
	return p.Price
}
