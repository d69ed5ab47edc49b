package services

import (
	"context"
	"slices"
	"strings"

	"shopfront/internal/api"
	"shopfront/internal/domain"
)

type ProductLister interface {
	List(ctx context.Context, token string, p api.ListParams) (api.ProductPage, error)
	Get(ctx context.Context, token, id string) (domain.Product, error)
}

type CatalogService struct {
	Prods ProductLister
}

func NewCatalogService(prods ProductLister) *CatalogService {
	return &CatalogService{Prods: prods}
}

// Sort keys accepted by Browse.
const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
	SortNewest    = "newest"
)

var SortKeys = []string{SortName, SortPriceLow, SortPriceHigh, SortRating, SortNewest}

type Filter struct {
	Search   string
	Category string // "" or "all" for every category
	Sort     string
}

type Listing struct {
	Products   []domain.Product
	Categories []string // every category in the unfiltered result, sorted
	Filter     Filter
	Total      int // before filtering
}

// Browse fetches the catalogue and narrows it locally by search term and
// category before sorting.
func (s *CatalogService) Browse(ctx context.Context, f Filter) (Listing, error) {
	page, err := s.Prods.List(ctx, "", api.ListParams{})
	if err != nil {
		return Listing{}, err
	}
	if f.Sort == "" {
		f.Sort = SortName
	}
	out := FilterProducts(page.Products, f.Search, f.Category)
	SortProducts(out, f.Sort)
	return Listing{
		Products:   out,
		Categories: CategoriesOf(page.Products),
		Filter:     f,
		Total:      len(page.Products),
	}, nil
}

func (s *CatalogService) Product(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Get(ctx, "", id)
}

// FilterProducts keeps products whose name, description or a tag contains
// term (case-insensitive) and whose category matches.
func FilterProducts(in []domain.Product, term, category string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.Product, 0, len(in))
	for _, p := range in {
		if category != "" && category != "all" && p.Category != category {
			continue
		}
		if term != "" && !matches(p, term) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p domain.Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

// SortProducts orders ps in place. Unknown keys leave the order untouched.
func SortProducts(ps []domain.Product, key string) {
	var cmp func(a, b domain.Product) int
	switch key {
	case SortName:
		cmp = func(a, b domain.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortPriceLow:
		cmp = func(a, b domain.Product) int { return compareFloat(a.Price, b.Price) }
	case SortPriceHigh:
		cmp = func(a, b domain.Product) int { return compareFloat(b.Price, a.Price) }
	case SortRating:
		cmp = func(a, b domain.Product) int { return compareFloat(b.Rating.Average, a.Rating.Average) }
	case SortNewest:
		// RFC 3339 timestamps order lexically.
		cmp = func(a, b domain.Product) int { return strings.Compare(b.CreatedAt, a.CreatedAt) }
	default:
		return
	}
	slices.SortStableFunc(ps, cmp)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func CategoriesOf(ps []domain.Product) []string {
	var out []string
	for _, p := range ps {
		if p.Category != "" && !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	slices.Sort(out)
	return out
}
