package api

import (
	"context"
	"net/url"
	"strconv"

	"shopfront/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// ListParams are the catalogue filters the remote service understands.
// Zero values are not sent.
type ListParams struct {
	Search   string
	Category string
	SortBy   string // e.g. "createdAt:desc"
	Page     int
	Limit    int
	IsActive *bool
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.SortBy != "" {
		v.Set("sortBy", p.SortBy)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.IsActive != nil {
		v.Set("isActive", strconv.FormatBool(*p.IsActive))
	}
	return v
}

type ProductPage struct {
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

// ProductInput is the writable subset of a product.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Stock       int      `json:"stock"`
	SKU         string   `json:"sku"`
	Tags        []string `json:"tags"`
	IsActive    bool     `json:"isActive"`
}

// ProductsAPI serves both the public catalogue (/ecommerce) and the admin
// catalogue (/admin). Writes need an admin token.
type ProductsAPI struct {
	c      *Client
	prefix string
}

func (p *ProductsAPI) List(ctx context.Context, token string, params ListParams) (ProductPage, error) {
	var out ProductPage
	err := p.c.do(ctx, call{method: fiber.MethodGet, path: p.prefix + "/products", token: token, query: params.values()}, &out)
	return out, err
}

func (p *ProductsAPI) Get(ctx context.Context, token, id string) (domain.Product, error) {
	var out struct {
		Product domain.Product `json:"product"`
	}
	err := p.c.do(ctx, call{method: fiber.MethodGet, path: p.prefix + "/products/" + url.PathEscape(id), token: token}, &out)
	return out.Product, err
}

func (p *ProductsAPI) Create(ctx context.Context, token string, in ProductInput) (domain.Product, error) {
	var out struct {
		Product domain.Product `json:"product"`
	}
	err := p.c.do(ctx, call{method: fiber.MethodPost, path: p.prefix + "/products", token: token, body: in}, &out)
	return out.Product, err
}

func (p *ProductsAPI) Update(ctx context.Context, token, id string, in ProductInput) (domain.Product, error) {
	var out struct {
		Product domain.Product `json:"product"`
	}
	err := p.c.do(ctx, call{method: fiber.MethodPut, path: p.prefix + "/products/" + url.PathEscape(id), token: token, body: in}, &out)
	return out.Product, err
}

func (p *ProductsAPI) Delete(ctx context.Context, token, id string) error {
	return p.c.do(ctx, call{method: fiber.MethodDelete, path: p.prefix + "/products/" + url.PathEscape(id), token: token}, nil)
}
