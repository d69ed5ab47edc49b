package handlers

import (
	"errors"
	"strings"

	"shopfront/internal/api"
	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET / and GET /products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	f := services.Filter{Category: "all", Sort: services.SortName}

	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		q, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": raw})
			return render(c.Status(fiber.StatusBadRequest), "products", fiber.Map{
				"Products": nil, "Filter": f, "SortKeys": services.SortKeys,
				"Err": "Enter a valid keyword (letters/numbers only)",
			})
		}
		f.Search = q
	}
	if raw := c.Query("category"); raw != "" && raw != "all" {
		cat, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return fail(c, fiber.StatusBadRequest, "Invalid category")
		}
		f.Category = cat
	}
	if raw := c.Query("sort"); raw != "" {
		sort, ok := validate.OneOf(raw, services.SortKeys)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "sort"})
			return fail(c, fiber.StatusBadRequest, "Invalid sort order")
		}
		f.Sort = sort
	}

	l, err := h.Catalog.Browse(c.UserContext(), f)
	if err != nil {
		log.Error(c, "products.list", err, nil)
		return fail(c, fiber.StatusBadGateway, "Could not load products. Please retry.")
	}
	return render(c, "products", fiber.Map{
		"Products":   l.Products,
		"Categories": l.Categories,
		"Filter":     l.Filter,
		"SortKeys":   services.SortKeys,
		"Count":      len(l.Products),
		"Total":      l.Total,
	})
}

// GET /product/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	p, err := h.Catalog.Product(c.UserContext(), id)
	if errors.Is(err, api.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		log.Error(c, "product.detail", err, map[string]any{"product": id})
		return fail(c, fiber.StatusBadGateway, "Could not load this item. Please retry.")
	}
	inCart := 0
	for _, it := range cartOf(c).Items() {
		if it.ProductID == p.ID {
			inCart = it.Quantity
		}
	}
	return render(c, "product", fiber.Map{"P": p, "InCart": inCart})
}
