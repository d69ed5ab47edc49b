package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/api"
	"shopfront/internal/domain"
	"shopfront/internal/services"
)

type stubLister struct {
	page api.ProductPage
	err  error
}

func (s stubLister) List(context.Context, string, api.ListParams) (api.ProductPage, error) {
	return s.page, s.err
}

func (s stubLister) Get(_ context.Context, _, id string) (domain.Product, error) {
	for _, p := range s.page.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, &api.Error{Status: 404}
}

func catalog() []domain.Product {
	return []domain.Product{
		{ID: "a", Name: "banana slicer", Description: "kitchen gadget", Price: 9, Category: "Home & Kitchen", Rating: domain.Rating{Average: 3}, CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "b", Name: "Apple Watch", Description: "smart", Price: 399, Category: "Electronics", Tags: []string{"wearable"}, Rating: domain.Rating{Average: 4.5}, CreatedAt: "2024-06-01T00:00:00Z"},
		{ID: "c", Name: "Cookbook", Description: "recipes for the kitchen", Price: 25, Category: "Books", Rating: domain.Rating{Average: 4.9}, CreatedAt: "2023-05-01T00:00:00Z"},
	}
}

func ids(ps []domain.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestFilterProducts(t *testing.T) {
	tests := []struct {
		name, term, category string
		want                 []string
	}{
		{"everything", "", "", []string{"a", "b", "c"}},
		{"all category", "", "all", []string{"a", "b", "c"}},
		{"by name", "APPLE", "", []string{"b"}},
		{"by description", "kitchen", "", []string{"a", "c"}},
		{"by tag", "wear", "", []string{"b"}},
		{"term and category", "kitchen", "Books", []string{"c"}},
		{"no match", "zzz", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(services.FilterProducts(catalog(), tt.term, tt.category)))
		})
	}
}

func TestSortProducts(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{services.SortName, []string{"b", "a", "c"}},
		{services.SortPriceLow, []string{"a", "c", "b"}},
		{services.SortPriceHigh, []string{"b", "c", "a"}},
		{services.SortRating, []string{"c", "b", "a"}},
		{services.SortNewest, []string{"b", "a", "c"}},
		{"bogus", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			ps := catalog()
			services.SortProducts(ps, tt.key)
			assert.Equal(t, tt.want, ids(ps))
		})
	}
}

func TestCatalogService_Browse(t *testing.T) {
	svc := services.NewCatalogService(stubLister{page: api.ProductPage{Products: catalog()}})

	l, err := svc.Browse(context.Background(), services.Filter{Search: "kitchen", Sort: services.SortPriceHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(l.Products))
	assert.Equal(t, []string{"Books", "Electronics", "Home & Kitchen"}, l.Categories)
	assert.Equal(t, 3, l.Total)

	l, err = svc.Browse(context.Background(), services.Filter{})
	require.NoError(t, err)
	assert.Equal(t, services.SortName, l.Filter.Sort)
}

func TestCatalogService_BrowseError(t *testing.T) {
	svc := services.NewCatalogService(stubLister{err: &api.Error{Status: 500, Message: "down"}})
	_, err := svc.Browse(context.Background(), services.Filter{})
	assert.Error(t, err)
}
