package handlers

import (
	"shopfront/internal/cart"
	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sidCookie = "sid"

func ensureSID(c *fiber.Ctx) (string, bool) {
	sid := c.Cookies(sidCookie)
	if _, err := uuid.Parse(sid); err == nil {
		return sid, false
	}
	sid = uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable true behind TLS
	})
	return sid, true
}

// AttachSession loads the browser session and its cart store into Locals:
// "session" (*domain.Session) and "cart" (*cart.Store). Every later handler
// reaches the cart through cartOf.
func AttachSession(auth *services.AuthService, carts *services.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Probes and scrapers get no session.
		if p := c.Path(); p == "/healthz" || p == "/metrics" {
			return c.Next()
		}
		sid, fresh := ensureSID(c)
		if fresh {
			if err := auth.Sessions.Touch(sid); err != nil {
				applog.Warn(c, "session.touch", err, nil)
			}
		}
		sess, err := auth.Session(sid)
		if err != nil {
			applog.Error(c, "session.load", err, nil)
			sess = &domain.Session{ID: sid}
		}
		c.Locals("session", sess)
		if sess.LoggedIn() {
			c.Locals("user_id", sess.UserID)
		}
		c.Locals("cart", carts.Store(c.UserContext(), sid))
		return c.Next()
	}
}

func sessionOf(c *fiber.Ctx) *domain.Session {
	if s, ok := c.Locals("session").(*domain.Session); ok {
		return s
	}
	return &domain.Session{ID: c.Cookies(sidCookie)}
}

func cartOf(c *fiber.Ctx) *cart.Store {
	st, _ := c.Locals("cart").(*cart.Store)
	return st
}
