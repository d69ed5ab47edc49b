package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shopfront/internal/api"
	"shopfront/internal/api/apitest"
	"shopfront/internal/cart"
	"shopfront/internal/http/handlers"
	"shopfront/internal/metrics"
	"shopfront/internal/repos"
	"shopfront/internal/services"
)

// stack is a full storefront wired to a fake remote API and an in-memory
// sqlite database.
type stack struct {
	srv      *apitest.Server
	app      *fiber.App
	kv       *repos.KVRepo
	sessions *repos.SessionRepo
	carts    *services.CartService
	metrics  *metrics.Metrics
}

func newStack(t *testing.T, cfg handlers.AppConfig) *stack {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	client := api.New(srv.URL, 2*time.Second)

	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	kv := repos.NewKVRepo(db)

	carts, err := services.NewCartService(client.Products, kv.Scope, services.CartOptions{Feed: cart.NewLocalFeed()})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	t.Cleanup(carts.Close)

	m := metrics.New()
	cfg.TemplatesDir = "../../web/templates"
	app := handlers.NewApp(cfg, handlers.NewDeps(db, client, carts, zap.NewNop()).WithMetrics(m))
	return &stack{srv: srv, app: app, kv: kv, sessions: repos.NewSessionRepo(db), carts: carts, metrics: m}
}

type result struct {
	status int
	body   string
	header http.Header
}

// browser keeps cookies between requests and fills in the CSRF token on
// every POST.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (s *stack) browser(t *testing.T) *browser {
	t.Helper()
	b := &browser{t: t, app: s.app, cookies: map[string]string{}}
	r := b.get("/login")
	if r.status != http.StatusOK {
		t.Fatalf("GET /login: %d", r.status)
	}
	if b.cookies["csrf_"] == "" {
		t.Fatal("csrf token missing")
	}
	if b.cookies["sid"] == "" {
		t.Fatal("sid cookie missing")
	}
	return b
}

func (b *browser) get(path string, headers ...string) result {
	return b.do(http.MethodGet, path, nil, headers...)
}

func (b *browser) post(path string, form url.Values, headers ...string) result {
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf") == "" {
		form.Set("csrf", b.cookies["csrf_"])
	}
	return b.do(http.MethodPost, path, form, headers...)
}

func (b *browser) do(method, path string, form url.Values, headers ...string) result {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	for k, v := range b.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := b.app.Test(req, -1)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	data, _ := io.ReadAll(resp.Body)
	return result{status: resp.StatusCode, body: string(data), header: resp.Header}
}

func (b *browser) login(email, password string) result {
	b.t.Helper()
	return b.post("/login", url.Values{"email": {email}, "password": {password}})
}

func (b *browser) addToCart(productID string, qty string) result {
	b.t.Helper()
	return b.post("/cart", url.Values{"productId": {productID}, "qty": {qty}})
}
