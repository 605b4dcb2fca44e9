package domain

import (
	"github.com/shopspring/decimal"
)

// CartLineItem is one (product, size) line of a cart
type CartLineItem struct {
	Product  *Product `json:"product"`
	Size     string   `json:"size"`
	Quantity int      `json:"quantity"`
}

// Matches reports whether the line is for the given product and size
func (l CartLineItem) Matches(productID, size string) bool {
	return l.Product != nil && l.Product.ID == productID && l.Size == size
}

// UnitPrice resolves the line's price from the current product data
func (l CartLineItem) UnitPrice() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.UnitPrice(l.Size)
}

// Subtotal is unit price times quantity
func (l CartLineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TotalItems sums the quantities of all lines
func TotalItems(lines []CartLineItem) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice sums the subtotals of all lines
func TotalPrice(lines []CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// CartSnapshot is a read-only view of a cart with its derived totals
type CartSnapshot struct {
	Items      []CartLineItem  `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// NewCartSnapshot derives totals from lines
func NewCartSnapshot(lines []CartLineItem) CartSnapshot {
	return CartSnapshot{
		Items:      lines,
		TotalItems: TotalItems(lines),
		TotalPrice: TotalPrice(lines),
	}
}
