package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopfront/internal/api"
	"shopfront/internal/cart"
	applog "shopfront/internal/log"
	"shopfront/internal/metrics"
	"shopfront/internal/services"
	"shopfront/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const heartbeatEvery = 15 * time.Second

type CartHandler struct {
	Carts   *services.CartService
	Metrics *metrics.Metrics
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

// done answers a cart mutation: the view as JSON for API callers, a
// redirect to the cart page otherwise. A persist failure is logged; the
// in-memory cart stays authoritative.
func (h *CartHandler) done(c *fiber.Ctx, action string, err error) error {
	if err != nil {
		if !errors.Is(err, cart.ErrPersist) {
			return err
		}
		applog.Warn(c, action+".persist", err, nil)
	}
	h.Metrics.CartOp(action, err)
	if wantsJSON(c) {
		return c.JSON(cartOf(c).View())
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	return render(c, "cart", fiber.Map{"Cart": cartOf(c).View()})
}

// POST /cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))

	sess := sessionOf(c)
	p, held, err := h.Carts.AddProduct(c.UserContext(), sess.ID, productID, qty)
	switch {
	case errors.Is(err, services.ErrOutOfStock):
		return fail(c, fiber.StatusConflict, "This item is out of stock")
	case errors.Is(err, api.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	case err != nil && !errors.Is(err, cart.ErrPersist):
		applog.Error(c, "cart.add", err, map[string]any{"product": productID})
		return fail(c, fiber.StatusBadGateway, "Could not reach the store service. Please try again.")
	}
	applog.Audit(c, "cart.add", map[string]any{"product": productID, "name": p.Name, "requested": qty, "qty": held})
	return h.done(c, "cart.add", err)
}

// POST /cart/update
func (h *CartHandler) Update(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty, ok := validate.SetQty(c.FormValue("qty"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "qty"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid quantity")
	}
	err := cartOf(c).SetQuantity(c.UserContext(), productID, qty)
	return h.done(c, "cart.update", err)
}

// POST /cart/remove
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	err := cartOf(c).RemoveItem(c.UserContext(), productID)
	return h.done(c, "cart.remove", err)
}

// POST /cart/clear
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	err := cartOf(c).Clear(c.UserContext())
	return h.done(c, "cart.clear", err)
}

// GET /api/v1/cart
func (h *CartHandler) Summary(c *fiber.Ctx) error {
	return c.JSON(cartOf(c).View())
}

// GET /api/v1/cart/events streams the cart as server-sent events: the
// current view first, then one event per change, from any tab or instance.
// The stream ends when the store is closed; EventSource then reconnects and
// picks up the session's live store.
func (h *CartHandler) Events(c *fiber.Ctx) error {
	store := cartOf(c)
	updates := make(chan cart.View, 16)
	cancel := store.Subscribe(func(v cart.View) {
		select {
		case updates <- v:
		default: // slow reader; the next event carries the full view anyway
		}
	})
	first := store.View()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(heartbeatEvery)
		defer ticker.Stop()
		_ = streamViews(w, first, updates, ticker.C, store.Done())
	}))
	return nil
}

// streamViews writes first and then every view received on updates until
// updates or closed is closed, or the client goes away.
func streamViews(w *bufio.Writer, first cart.View, updates <-chan cart.View, heartbeat <-chan time.Time, closed <-chan struct{}) error {
	if err := writeEvent(w, first); err != nil {
		return err
	}
	for {
		select {
		case v, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEvent(w, v); err != nil {
				return err
			}
		case <-closed:
			return nil
		case <-heartbeat:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

func writeEvent(w *bufio.Writer, v cart.View) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
