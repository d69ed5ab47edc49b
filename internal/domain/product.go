package domain

// Product mirrors the remote catalogue payload.
type Product struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Stock       *int     `json:"stock,omitempty"` // nil when the API omits it
	SKU         string   `json:"sku,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsActive    bool     `json:"isActive"`
	Rating      Rating   `json:"rating"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// InStock reports false only when the API says the product has no units.
func (p Product) InStock() bool {
	return p.Stock == nil || *p.Stock > 0
}

type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalProducts int  `json:"totalProducts"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

type CategoryStat struct {
	Category string `json:"_id"`
	Count    int    `json:"count"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalProducts    int            `json:"totalProducts"`
	ActiveProducts   int            `json:"activeProducts"`
	InactiveProducts int            `json:"inactiveProducts"`
	OutOfStock       int            `json:"outOfStock"`
	CategoryStats    []CategoryStat `json:"categoryStats"`
	LowStockProducts []Product      `json:"lowStockProducts"`
	RecentProducts   []Product      `json:"recentProducts"`
}

// Categories is the fixed list offered when creating or editing a product.
var Categories = []string{
	"Electronics", "Clothing", "Books", "Home & Kitchen", "Sports",
	"Beauty", "Toys", "Automotive", "Other",
}

// LowStock is the level below which a product counts as running out.
const LowStock = 5

// Availability answers "can I still add this?" for one product.
type Availability struct {
	ProductID string `json:"productId"`
	Status    string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK | UNKNOWN
	Qty       *int   `json:"qty,omitempty"`
	InCart    int    `json:"inCart"`
	Remaining *int   `json:"remaining,omitempty"` // units the cart can still take; nil when unbounded
}
