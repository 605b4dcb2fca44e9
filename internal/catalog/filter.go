package catalog

import (
	"sort"
	"strings"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
)

// Sort orders accepted by Apply
const (
	SortFeatured  = "featured"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNew       = "new"
)

// All disables a category or collection filter
const All = "all"

// Query describes shop listing filters
type Query struct {
	Category   string
	Collection string
	Search     string
	Sort       string
}

// Apply filters and sorts products without modifying the input slice
func Apply(products []domain.Product, q Query) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if q.Category != "" && q.Category != All && string(p.Category) != q.Category {
			continue
		}
		if !InCollection(p, q.Collection) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortNew:
		sort.SliceStable(out, func(i, j int) bool { return out[i].New && !out[j].New })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Featured && !out[j].Featured })
	}

	return out
}

// InCollection reports whether a product belongs to the named shop collection.
// Unknown collections match everything.
func InCollection(p domain.Product, collection string) bool {
	switch collection {
	case "signature", "luxury":
		return p.Featured
	case "seasonal":
		return p.New
	}
	return true
}
