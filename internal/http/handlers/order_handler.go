package handlers

import (
	"errors"

	"shopfront/internal/api"
	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/metrics"
	"shopfront/internal/services"
	"shopfront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Orders  *services.OrderService
	Metrics *metrics.Metrics
}

// GET /checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	v := cartOf(c).View()
	if len(v.Items) == 0 {
		return c.Redirect("/cart")
	}
	sess := sessionOf(c)
	return render(c, "checkout", fiber.Map{
		"Cart": v,
		"Ship": domain.ShippingAddress{FullName: sess.UserName},
	})
}

func shippingFrom(c *fiber.Ctx) (domain.ShippingAddress, string) {
	var s domain.ShippingAddress
	var ok bool
	if s.FullName, ok = validate.Name(c.FormValue("fullName")); !ok {
		return s, "fullName"
	}
	if s.Street, ok = validate.Text(c.FormValue("street"), 120); !ok {
		return s, "street"
	}
	if s.City, ok = validate.Text(c.FormValue("city"), 60); !ok {
		return s, "city"
	}
	if s.PostalCode, ok = validate.Text(c.FormValue("postalCode"), 12); !ok {
		return s, "postalCode"
	}
	if s.Country, ok = validate.Text(c.FormValue("country"), 60); !ok {
		return s, "country"
	}
	return s, ""
}

// POST /orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	ship, bad := shippingFrom(c)
	if bad != "" {
		applog.Security(c, "validation.fail", map[string]any{"field": bad})
		return render(c.Status(fiber.StatusBadRequest), "checkout", fiber.Map{
			"Cart": cartOf(c).View(), "Ship": ship, "Err": "Please complete the shipping address (" + bad + ")",
		})
	}

	sess := sessionOf(c)
	order, err := h.Orders.Place(c.UserContext(), sess, ship)
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return c.Redirect("/cart")
	case errors.Is(err, services.ErrLoginRequired), errors.Is(err, api.ErrUnauthorized):
		applog.Security(c, "order.place.unauthorized", nil)
		return c.Redirect("/login")
	case err != nil:
		applog.Error(c, "order.place.fail", err, nil)
		return render(c.Status(fiber.StatusBadGateway), "checkout", fiber.Map{
			"Cart": cartOf(c).View(), "Ship": ship, "Err": "Could not place order. " + api.Message(err, "Please try again."),
		})
	}

	h.Metrics.OrderPlaced()
	applog.Audit(c, "order.place", map[string]any{
		"order_id": order.OrderID,
		"total":    order.TotalAmount,
		"items":    len(order.Items),
	})
	return render(c.Status(fiber.StatusCreated), "order_success", fiber.Map{"Order": order})
}

// POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	err := h.Orders.Cancel(c.UserContext(), sessionOf(c), id)
	switch {
	case errors.Is(err, api.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Order not found")
	case errors.Is(err, services.ErrNotCancelable):
		return fail(c, fiber.StatusConflict, "This order can no longer be cancelled")
	case errors.Is(err, services.ErrLoginRequired), errors.Is(err, api.ErrUnauthorized):
		return c.Redirect("/login")
	case err != nil:
		applog.Error(c, "order.cancel.fail", err, map[string]any{"order_id": id})
		return fail(c, fiber.StatusBadGateway, "Could not cancel order")
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": id})
	return c.Redirect("/orders")
}

// GET /orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.History(c.UserContext(), sessionOf(c))
	if err != nil {
		applog.Error(c, "order.history", err, nil)
		return fail(c, fiber.StatusBadGateway, "Could not load your orders")
	}
	return render(c, "orders", fiber.Map{"Orders": orders})
}
