package handlers

import (
	"errors"

	applog "shopfront/internal/log"
	"shopfront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionOf(c).LoggedIn() {
			applog.Security(c, "access.denied.user", nil)
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

// RequireAdmin checks the session's admin token with the remote service on
// every request.
func RequireAdmin(admin *services.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := sessionOf(c)
		a, err := admin.Verify(c.UserContext(), sess)
		if errors.Is(err, services.ErrLoginRequired) {
			applog.Security(c, "access.denied.admin", nil)
			return c.Redirect("/admin/login")
		}
		if err != nil {
			applog.Error(c, "admin.verify", err, nil)
			return fail(c, fiber.StatusBadGateway, "Could not reach the store service. Please try again.")
		}
		c.Locals("admin", a)
		c.Locals("admin_token", sess.AdminToken)
		return c.Next()
	}
}
