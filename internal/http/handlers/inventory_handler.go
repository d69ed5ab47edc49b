package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/api"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /api/v1/availability?productId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing productId",
		})
	}

	inCart := 0
	for _, it := range cartOf(c).Items() {
		if it.ProductID == productID {
			inCart = it.Quantity
		}
	}

	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID, inCart)
	if errors.Is(err, api.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown product"})
	}
	if err != nil {
		applog.Error(c, "availability.check", err, map[string]any{"product": productID})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "availability unavailable, retry soon",
		})
	}
	return c.JSON(avail)
}
