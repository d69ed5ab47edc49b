package handlers

import (
	"errors"
	"strconv"

	"shopfront/internal/api"
	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Admin *services.AdminService
}

func adminToken(c *fiber.Ctx) string {
	tok, _ := c.Locals("admin_token").(string)
	return tok
}

// GET /admin/login
func (h *AdminHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "admin_login", fiber.Map{"Err": ""})
}

// POST /admin/login
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	email, ok := validate.Email(c.FormValue("email"))
	pass := c.FormValue("password")
	if !ok || !validate.LoginPassword(pass) {
		applog.Security(c, "admin.login.fail", map[string]any{"reason": "bad_format"})
		return render(c.Status(fiber.StatusUnauthorized), "admin_login", fiber.Map{"Err": "Invalid credentials"})
	}
	a, err := h.Admin.Login(c.UserContext(), sessionOf(c).ID, email, pass)
	if errors.Is(err, services.ErrBadCreds) {
		applog.Security(c, "admin.login.fail", map[string]any{"email": email})
		return render(c.Status(fiber.StatusUnauthorized), "admin_login", fiber.Map{"Err": "Invalid credentials"})
	}
	if err != nil {
		applog.Error(c, "admin.login.error", err, nil)
		return render(c.Status(fiber.StatusBadGateway), "admin_login", fiber.Map{"Err": "Login is unavailable right now"})
	}
	applog.Audit(c, "admin.login.success", map[string]any{"admin": a.Email})
	return c.Redirect("/admin")
}

// POST /admin/logout
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	if err := h.Admin.Logout(sessionOf(c).ID); err != nil {
		return err
	}
	applog.Audit(c, "admin.logout", nil)
	return c.Redirect("/admin/login")
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	st, err := h.Admin.Dashboard(c.UserContext(), adminToken(c))
	if err != nil {
		applog.Error(c, "admin.stats.fail", err, nil)
		return fail(c, fiber.StatusBadGateway, "Could not load dashboard")
	}
	return render(c, "admin_dashboard", fiber.Map{"Stats": st})
}

// GET /admin/profile
func (h *AdminHandler) Profile(c *fiber.Ctx) error {
	a, err := h.Admin.Profile(c.UserContext(), adminToken(c))
	if err != nil {
		applog.Error(c, "admin.profile.fail", err, nil)
		return fail(c, fiber.StatusBadGateway, "Could not load profile")
	}
	return render(c, "admin_profile", fiber.Map{"Admin": a})
}

// GET /admin/products
func (h *AdminHandler) Products(c *fiber.Ctx) error {
	p := api.ListParams{}
	if raw := c.Query("search"); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "search"})
			return fail(c, fiber.StatusBadRequest, "Invalid search")
		}
		p.Search = q
	}
	if raw := c.Query("category"); raw != "" {
		cat, ok := validate.OneOf(raw, domain.Categories)
		if !ok {
			return fail(c, fiber.StatusBadRequest, "Invalid category")
		}
		p.Category = cat
	}
	switch c.Query("status") {
	case "active":
		p.IsActive = boolPtr(true)
	case "inactive":
		p.IsActive = boolPtr(false)
	}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.Page = n
	}

	page, err := h.Admin.ListProducts(c.UserContext(), adminToken(c), p)
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return fail(c, fiber.StatusBadGateway, "Could not load products")
	}
	return render(c, "admin_products", fiber.Map{
		"Products":   page.Products,
		"Pagination": page.Pagination,
		"Params":     p,
		"Status":     c.Query("status"),
		"Categories": domain.Categories,
	})
}

func boolPtr(b bool) *bool { return &b }

// GET /admin/products/new
func (h *AdminHandler) NewForm(c *fiber.Ctx) error {
	return render(c, "admin_product_form", fiber.Map{
		"P":          api.ProductInput{IsActive: true},
		"Categories": domain.Categories,
	})
}

// GET /admin/products/:id/edit
func (h *AdminHandler) EditForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	p, err := h.Admin.Product(c.UserContext(), adminToken(c), id)
	if errors.Is(err, api.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	if err != nil {
		applog.Error(c, "admin.product.load", err, map[string]any{"product": id})
		return fail(c, fiber.StatusBadGateway, "Error fetching product")
	}
	in := api.ProductInput{
		Name: p.Name, Description: p.Description, Price: p.Price, Category: p.Category,
		Image: p.Image, SKU: p.SKU, Tags: p.Tags, IsActive: p.IsActive,
	}
	if p.Stock != nil {
		in.Stock = *p.Stock
	}
	return render(c, "admin_product_form", fiber.Map{"ID": id, "P": in, "Categories": domain.Categories})
}

// productInput reads the product form. The second result names the first
// invalid field.
func productInput(c *fiber.Ctx) (api.ProductInput, string) {
	var in api.ProductInput
	var ok bool
	if in.Name, ok = validate.Name(c.FormValue("name")); !ok {
		return in, "name"
	}
	if in.SKU, ok = validate.SKU(c.FormValue("sku")); !ok {
		return in, "sku"
	}
	if in.Description, ok = validate.Text(c.FormValue("description"), 2000); !ok {
		return in, "description"
	}
	if in.Price, ok = validate.Price(c.FormValue("price")); !ok {
		return in, "price"
	}
	if in.Category, ok = validate.OneOf(c.FormValue("category"), domain.Categories); !ok {
		return in, "category"
	}
	if in.Stock, ok = validate.Stock(c.FormValue("stock")); !ok {
		return in, "stock"
	}
	if in.Image, ok = validate.ImageURL(c.FormValue("image")); !ok {
		return in, "image"
	}
	in.Tags = validate.Tags(c.FormValue("tags"))
	in.IsActive = c.FormValue("isActive") != ""
	return in, ""
}

// POST /admin/products and POST /admin/products/:id
func (h *AdminHandler) Save(c *fiber.Ctx) error {
	id := c.Params("id")
	if id != "" {
		var ok bool
		if id, ok = validate.ID(id); !ok {
			return fail(c, fiber.StatusNotFound, "Product not found")
		}
	}
	in, bad := productInput(c)
	if bad != "" {
		applog.Security(c, "validation.fail", map[string]any{"field": bad})
		return render(c.Status(fiber.StatusBadRequest), "admin_product_form", fiber.Map{
			"ID": id, "P": in, "Categories": domain.Categories, "Err": "Please provide a valid " + bad + ".",
		})
	}
	p, err := h.Admin.SaveProduct(c.UserContext(), adminToken(c), id, in)
	if err != nil {
		applog.Error(c, "admin.product.save.fail", err, map[string]any{"product": id})
		status := fiber.StatusBadGateway
		var ae *api.Error
		if errors.As(err, &ae) && ae.Status < 500 {
			status = ae.Status
		}
		return render(c.Status(status), "admin_product_form", fiber.Map{
			"ID": id, "P": in, "Categories": domain.Categories, "Err": api.Message(err, "Error saving product"),
		})
	}
	applog.Audit(c, "admin.product.save", map[string]any{"product": p.ID, "created": id == ""})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id/delete
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	if err := h.Admin.DeleteProduct(c.UserContext(), adminToken(c), id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Product not found")
		}
		applog.Error(c, "admin.product.delete.fail", err, map[string]any{"product": id})
		return fail(c, fiber.StatusBadGateway, "Could not delete product")
	}
	applog.Audit(c, "admin.product.delete", map[string]any{"product": id})
	return c.Redirect("/admin/products")
}
