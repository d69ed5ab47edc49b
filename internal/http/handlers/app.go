package handlers

import (
	"errors"
	"strings"
	"time"

	applog "shopfront/internal/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

type AppConfig struct {
	TemplatesDir string
	StaticDir    string // optional
	Reload       bool   // re-parse templates on every render

	RequestsPerMinute int // per client IP; 0 means 120
	LoginAttempts     int // per client IP per 10 minutes; 0 means 5
	BodyLimit         int // bytes; 0 means 1 MiB
}

func NewEngine(dir string, reload bool) *html.Engine {
	engine := html.New(dir, ".html")
	engine.Reload(reload)
	engine.AddFunc("money", func(f float64) string {
		return decimal.NewFromFloat(f).StringFixed(2)
	})
	engine.AddFunc("deref", func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	})
	engine.AddFunc("add", func(a, b int) int { return a + b })
	return engine
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		status = fe.Code
		switch status {
		case fiber.StatusNotFound:
			msg = "Page not found"
		case fiber.StatusRequestEntityTooLarge:
			msg = "Request too large"
		default:
			msg = "Request could not be processed"
		}
	}
	// Log and show a friendly message
	applog.Error(c, "server.error", err, map[string]any{"status": status})
	// Avoid leaking internals; best-effort render
	if rerr := fail(c, status, msg); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}

// NewApp builds the storefront: middleware chain, pages, JSON API and
// admin panel.
func NewApp(cfg AppConfig, d *Deps) *fiber.App {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 120
	}
	if cfg.LoginAttempts <= 0 {
		cfg.LoginAttempts = 5
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 1 << 20
	}

	app := fiber.New(fiber.Config{
		Views:        NewEngine(cfg.TemplatesDir, cfg.Reload),
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(AccessLog(d.Metrics))
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RequestsPerMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || p == "/healthz" || p == "/metrics" || p == "/api/v1/cart/events"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).SendString("rate limit exceeded, retry soon")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		Extractor: func(c *fiber.Ctx) (string, error) {
			if tok := c.Get("X-CSRF-Token"); tok != "" {
				return tok, nil
			}
			return csrf.CsrfFromForm("csrf")(c)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return fail(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	app.Use(AttachSession(d.Auth, d.Carts))

	if cfg.StaticDir != "" {
		app.Static("/static", cfg.StaticDir)
	}

	// ---------- Storefront ----------
	app.Get("/", d.ProductHandler.List)
	app.Get("/products", d.ProductHandler.List)
	app.Get("/search", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), d.ProductHandler.List)
	app.Get("/product/:id", d.ProductHandler.Detail)

	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", RequireUser(), d.CartHandler.Add)
	app.Post("/cart/update", d.CartHandler.Update)
	app.Post("/cart/remove", d.CartHandler.Remove)
	app.Post("/cart/clear", d.CartHandler.Clear)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/cart", d.CartHandler.Summary)
	apiV1.Get("/cart/events", d.CartHandler.Events)
	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	apiV1.Get("/availability", availLimiter, d.InventoryHandler.Check)

	app.Get("/checkout", RequireUser(), d.OrderHandler.Checkout)
	app.Post("/orders", RequireUser(), d.OrderHandler.Place)
	app.Get("/orders", RequireUser(), d.OrderHandler.History)
	app.Post("/orders/:id/cancel", RequireUser(), d.OrderHandler.Cancel)

	// Auth routes (login throttled)
	loginLimiter := limiter.New(limiter.Config{
		Max:        cfg.LoginAttempts,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return render(c.Status(fiber.StatusTooManyRequests), "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	})
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", loginLimiter, d.AuthHandler.Login)
	app.Get("/signup", d.AuthHandler.SignupForm)
	app.Post("/signup", loginLimiter, d.AuthHandler.Signup)
	app.Post("/logout", d.AuthHandler.Logout)

	// ---------- Admin ----------
	requireAdmin := RequireAdmin(d.Admin)
	app.Get("/admin/login", d.AdminHandler.LoginForm)
	app.Post("/admin/login", loginLimiter, d.AdminHandler.Login)
	app.Post("/admin/logout", d.AdminHandler.Logout)
	app.Get("/admin", requireAdmin, d.AdminHandler.Dashboard)
	app.Get("/admin/profile", requireAdmin, d.AdminHandler.Profile)
	app.Get("/admin/products", requireAdmin, d.AdminHandler.Products)
	app.Get("/admin/products/new", requireAdmin, d.AdminHandler.NewForm)
	app.Post("/admin/products", requireAdmin, d.AdminHandler.Save)
	app.Get("/admin/products/:id/edit", requireAdmin, d.AdminHandler.EditForm)
	app.Post("/admin/products/:id", requireAdmin, d.AdminHandler.Save)
	app.Post("/admin/products/:id/delete", requireAdmin, d.AdminHandler.Delete)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))
	}
	app.Use(func(c *fiber.Ctx) error {
		return fail(c, fiber.StatusNotFound, "Page not found")
	})
	return app
}
