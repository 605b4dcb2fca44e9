package catalog

import (
	"strings"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
)

// Collection is a curated grouping of products
type Collection struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Filters     []string `json:"filters"`
}

// CollectionSample pairs a collection with a few of its products
type CollectionSample struct {
	Collection
	Products []domain.Product `json:"products"`
}

var collections = []Collection{
	{
		ID:          "signature",
		Name:        "Signature Collection",
		Description: "Our iconic fragrances that define the essence of our brand.",
		Image:       "https://images.unsplash.com/photo-1615104100916-d079c1e3cd31?q=80&w=1000",
		Filters:     []string{"featured"},
	},
	{
		ID:          "seasonal",
		Name:        "Seasonal Editions",
		Description: "Limited releases inspired by the changing seasons.",
		Image:       "https://images.unsplash.com/photo-1625772299848-391b6a87d7b3?q=80&w=1000",
		Filters:     []string{"new"},
	},
	{
		ID:          "men",
		Name:        "Men's Collection",
		Description: "Sophisticated scents tailored for the modern gentleman.",
		Image:       "https://images.unsplash.com/photo-1595535873420-a599195b3f4a?q=80&w=1000",
		Filters:     []string{"category:men"},
	},
	{
		ID:          "women",
		Name:        "Women's Collection",
		Description: "Elegant fragrances crafted to capture feminine essence.",
		Image:       "https://images.unsplash.com/photo-1541108564883-bde8e501a115?q=80&w=1000",
		Filters:     []string{"category:women"},
	},
	{
		ID:          "unisex",
		Name:        "Unisex Fragrances",
		Description: "Gender-neutral scents for everyone to enjoy.",
		Image:       "https://images.unsplash.com/photo-1557828000-edf6ef1fbca6?q=80&w=1000",
		Filters:     []string{"category:unisex"},
	},
	{
		ID:          "luxury",
		Name:        "Luxury Line",
		Description: "Premium fragrances featuring rare and exotic ingredients.",
		Image:       "https://images.unsplash.com/photo-1605651531144-51381895e23d?q=80&w=1000",
		Filters:     []string{"featured"},
	},
}

// Collections returns the curated collections
func Collections() []Collection {
	out := make([]Collection, len(collections))
	copy(out, collections)
	return out
}

// Matches reports whether a product satisfies any of the collection's filters
func (c Collection) Matches(p domain.Product) bool {
	for _, f := range c.Filters {
		switch {
		case strings.HasPrefix(f, "category:"):
			if string(p.Category) == strings.TrimPrefix(f, "category:") {
				return true
			}
		case f == "featured":
			if p.Featured {
				return true
			}
		case f == "new":
			if p.New {
				return true
			}
		}
	}
	return false
}

// CollectionSamples returns every collection with up to perCollection matching products
func CollectionSamples(products []domain.Product, perCollection int) []CollectionSample {
	out := make([]CollectionSample, 0, len(collections))
	for _, c := range collections {
		sample := CollectionSample{Collection: c, Products: []domain.Product{}}
		for _, p := range products {
			if len(sample.Products) >= perCollection {
				break
			}
			if c.Matches(p) {
				sample.Products = append(sample.Products, p)
			}
		}
		out = append(out, sample)
	}
	return out
}
