package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"shopfront/internal/http/handlers"
)

func TestMetricsEndpoint(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	b := loggedIn(t, s)
	b.addToCart("p-book", "1")
	b.post("/cart/clear", nil)
	b.addToCart("p-lamp", "1")
	if r := b.post("/orders", shipping()); r.status != http.StatusCreated {
		t.Fatalf("place order: %d", r.status)
	}

	if n := testutil.ToFloat64(s.metrics.CartOps.WithLabelValues("cart.add")); n != 2 {
		t.Fatalf("cart.add counted %v times", n)
	}
	if n := testutil.ToFloat64(s.metrics.Orders); n != 1 {
		t.Fatalf("orders counted %v times", n)
	}

	r := b.get("/metrics")
	if r.status != http.StatusOK {
		t.Fatalf("metrics: %d", r.status)
	}
	for _, want := range []string{
		`shopfront_cart_operations_total{op="cart.clear"} 1`,
		"shopfront_cart_open_stores ",
		"shopfront_http_requests_total",
	} {
		if !strings.Contains(r.body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestProbesGetNoSession(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	for _, path := range []string{"/healthz", "/metrics"} {
		b := &browser{t: t, app: s.app, cookies: map[string]string{}}
		if r := b.get(path); r.status != http.StatusOK {
			t.Fatalf("%s: %d", path, r.status)
		}
		if b.cookies["sid"] != "" {
			t.Fatalf("%s set a session cookie", path)
		}
	}
}
