package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"shopfront/internal/api/apitest"
	"shopfront/internal/cart"
	"shopfront/internal/domain"
	"shopfront/internal/http/handlers"
)

func summary(t *testing.T, b *browser) cart.View {
	t.Helper()
	r := b.get("/api/v1/cart")
	if r.status != http.StatusOK {
		t.Fatalf("cart summary: %d", r.status)
	}
	var v cart.View
	if err := json.Unmarshal([]byte(r.body), &v); err != nil {
		t.Fatalf("decode summary: %v body=%s", err, r.body)
	}
	return v
}

func loggedIn(t *testing.T, s *stack) *browser {
	t.Helper()
	b := s.browser(t)
	if r := b.login("ada@example.com", apitest.Password); r.status != http.StatusFound {
		t.Fatalf("login: %d", r.status)
	}
	return b
}

func TestAddToCartRequiresLogin(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	b := s.browser(t)

	r := b.addToCart("p-lamp", "1")
	if r.status != http.StatusFound || r.header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", r.status, r.header.Get("Location"))
	}
	if v := summary(t, b); v.Count != 0 {
		t.Fatalf("anonymous add changed the cart: %+v", v)
	}
}

func TestCartLifecycle(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	b := loggedIn(t, s)

	if r := b.addToCart("p-lamp", "2"); r.status != http.StatusFound || r.header.Get("Location") != "/cart" {
		t.Fatalf("add: %d %q", r.status, r.header.Get("Location"))
	}
	// Stock is 3; the extra units are dropped.
	b.addToCart("p-lamp", "5")
	if v := summary(t, b); v.Count != 3 {
		t.Fatalf("expected quantity clamped to 3, got %d", v.Count)
	}

	r := b.post("/cart", url.Values{"productId": {"p-book"}, "qty": {"1"}}, "Accept", "application/json")
	if r.status != http.StatusOK {
		t.Fatalf("json add: %d", r.status)
	}
	var v cart.View
	if err := json.Unmarshal([]byte(r.body), &v); err != nil {
		t.Fatal(err)
	}
	if v.Count != 4 || v.Subtotal != 99.47 {
		t.Fatalf("unexpected view after json add: count=%d subtotal=%v", v.Count, v.Subtotal)
	}
	if len(v.Items) != 2 || v.Items[0].ProductID != "p-lamp" || v.Items[1].ProductID != "p-book" {
		t.Fatalf("items out of insertion order: %+v", v.Items)
	}

	page := b.get("/cart")
	if !strings.Contains(page.body, "Desk Lamp") || !strings.Contains(page.body, "$99.47") {
		t.Fatalf("cart page missing items or subtotal")
	}
	if !strings.Contains(page.body, `id="cart-count" class="badge">4<`) {
		t.Fatalf("nav badge does not show item count")
	}

	b.post("/cart/update", url.Values{"productId": {"p-lamp"}, "qty": {"1"}})
	if v := summary(t, b); v.Count != 2 {
		t.Fatalf("update: expected 2 items, got %d", v.Count)
	}

	b.post("/cart/remove", url.Values{"productId": {"p-book"}})
	v = summary(t, b)
	if v.Count != 1 || len(v.Items) != 1 || v.Subtotal != 19.99 {
		t.Fatalf("remove: unexpected view %+v", v)
	}

	b.post("/cart/update", url.Values{"productId": {"p-lamp"}, "qty": {"0"}})
	if v := summary(t, b); len(v.Items) != 0 {
		t.Fatalf("qty 0 should remove the line: %+v", v)
	}

	b.addToCart("p-book", "3")
	b.post("/cart/clear", nil)
	if v := summary(t, b); v.Count != 0 || v.Subtotal != 0 {
		t.Fatalf("clear: unexpected view %+v", v)
	}
}

func TestAddUnavailableProducts(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	b := loggedIn(t, s)

	if r := b.addToCart("p-ball", "1"); r.status != http.StatusConflict {
		t.Fatalf("out of stock: expected 409, got %d", r.status)
	}
	if r := b.addToCart("p-gone", "1"); r.status != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404, got %d", r.status)
	}
	if r := b.addToCart("", "1"); r.status != http.StatusBadRequest {
		t.Fatalf("missing id: expected 400, got %d", r.status)
	}
	if v := summary(t, b); v.Count != 0 {
		t.Fatalf("rejected adds changed the cart: %+v", v)
	}
}

func TestUpdateRejectsBadQuantity(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	b := loggedIn(t, s)
	b.addToCart("p-book", "2")

	if r := b.post("/cart/update", url.Values{"productId": {"p-book"}, "qty": {"lots"}}); r.status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", r.status)
	}
	if v := summary(t, b); v.Count != 2 {
		t.Fatalf("bad update changed the cart: %+v", v)
	}
}

func TestCartRestoredFromStorage(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	b := loggedIn(t, s)
	b.addToCart("p-lamp", "1")
	b.addToCart("p-book", "2")

	// Drop every open store; the next request reopens from sqlite.
	s.carts.Close()
	if n := s.carts.Open(); n != 0 {
		t.Fatalf("expected no open stores, got %d", n)
	}

	v := summary(t, b)
	if v.Count != 3 || v.Subtotal != 98.99 {
		t.Fatalf("cart not restored: %+v", v)
	}
}

func TestAvailabilityAccountsForCart(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	b := loggedIn(t, s)
	b.addToCart("p-lamp", "2")

	r := b.get("/api/v1/availability?productId=p-lamp")
	if r.status != http.StatusOK {
		t.Fatalf("availability: %d", r.status)
	}
	var a domain.Availability
	if err := json.Unmarshal([]byte(r.body), &a); err != nil {
		t.Fatal(err)
	}
	if a.Status != "LOW_STOCK" || a.InCart != 2 || a.Remaining == nil || *a.Remaining != 1 {
		t.Fatalf("unexpected availability %+v", a)
	}

	if r := b.get("/api/v1/availability?productId=p-none"); r.status != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404, got %d", r.status)
	}
	if r := b.get("/api/v1/availability"); r.status != http.StatusBadRequest {
		t.Fatalf("missing id: expected 400, got %d", r.status)
	}
}
