package cart

import (
	"math"

	"github.com/shopspring/decimal"
)

// LineItem is one product entry in the cart. Name, ImageURL and UnitPrice
// are captured when the product is first added; AvailableStock follows the
// latest add that reports one.
type LineItem struct {
	ProductID      string  `json:"productId"`
	Name           string  `json:"name"`
	ImageURL       string  `json:"imageUrl"`
	UnitPrice      float64 `json:"unitPrice"`
	Quantity       int     `json:"quantity"`
	AvailableStock *int    `json:"availableStock,omitempty"` // nil: bound unknown
}

// LineTotal is UnitPrice × Quantity rounded to cents.
func (it LineItem) LineTotal() float64 {
	return decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2).InexactFloat64()
}

// Product is the descriptor handed to AddItem, usually built from a remote
// catalogue payload.
type Product struct {
	ProductID      string
	Name           string
	ImageURL       string
	UnitPrice      float64
	AvailableStock *int
}

// View is a read-only projection of the cart for rendering.
type View struct {
	Items    []LineItem `json:"items"`
	Count    int        `json:"count"`
	Subtotal float64    `json:"subtotal"`
}

// Stock returns a pointer suitable for Product.AvailableStock.
func Stock(n int) *int { return &n }

func (it LineItem) clone() LineItem {
	out := it
	if it.AvailableStock != nil {
		out.AvailableStock = Stock(*it.AvailableStock)
	}
	return out
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}

// clampQty caps qty at stock when the bound is known and positive, and keeps
// the result at 1 or more.
func clampQty(qty int, stock *int) int {
	if stock != nil && *stock > 0 && qty > *stock {
		qty = *stock
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}

func sanitizePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}
