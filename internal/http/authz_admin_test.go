package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"shopfront/internal/api/apitest"
	"shopfront/internal/domain"
	"shopfront/internal/http/handlers"
)

func adminLogin(t *testing.T, b *browser) {
	t.Helper()
	r := b.post("/admin/login", url.Values{"email": {"root@example.com"}, "password": {apitest.Password}})
	if r.status != http.StatusFound || r.header.Get("Location") != "/admin" {
		t.Fatalf("admin login: %d %q", r.status, r.header.Get("Location"))
	}
}

func TestAdminGuardRequiresAdmin(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})

	// Anonymous -> redirect
	anon := s.browser(t)
	for _, path := range []string{"/admin", "/admin/profile", "/admin/products", "/admin/products/new"} {
		r := anon.get(path)
		if r.status != http.StatusFound || r.header.Get("Location") != "/admin/login" {
			t.Fatalf("%s: expected redirect to admin login, got %d", path, r.status)
		}
	}
	if r := anon.get("/admin/login"); r.status != http.StatusOK {
		t.Fatalf("admin login page must stay public, got %d", r.status)
	}

	// A shopper session is not an admin session.
	user := loggedIn(t, s)
	if r := user.get("/admin"); r.status != http.StatusFound {
		t.Fatalf("expected redirect for non-admin, got %d", r.status)
	}

	if r := user.post("/admin/login", url.Values{"email": {"root@example.com"}, "password": {"nope"}}); r.status != http.StatusUnauthorized {
		t.Fatalf("bad admin creds: expected 401, got %d", r.status)
	}

	adm := s.browser(t)
	adminLogin(t, adm)
	r := adm.get("/admin")
	if r.status != http.StatusOK {
		t.Fatalf("admin dashboard: %d", r.status)
	}
	if !strings.Contains(r.body, "Total products <strong>3</strong>") {
		t.Fatalf("dashboard stats missing; body=%s", r.body)
	}

	p := adm.get("/admin/profile")
	if p.status != http.StatusOK || !strings.Contains(p.body, "root@example.com") {
		t.Fatalf("admin profile: %d", p.status)
	}

	adm.post("/admin/logout", nil)
	if r := adm.get("/admin"); r.status != http.StatusFound {
		t.Fatalf("expected redirect after admin logout, got %d", r.status)
	}
}

func TestAdminRevokedTokenRedirects(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	adm := s.browser(t)
	sid := adm.cookies["sid"]

	// A token the remote no longer accepts.
	if err := s.sessions.BindAdmin(sid, domain.Admin{ID: "a-root", Name: "Root"}, "stale-token"); err != nil {
		t.Fatal(err)
	}
	r := adm.get("/admin")
	if r.status != http.StatusFound || r.header.Get("Location") != "/admin/login" {
		t.Fatalf("expected redirect to admin login, got %d", r.status)
	}
	sess, err := s.sessions.Get(sid)
	if err != nil {
		t.Fatal(err)
	}
	if sess.IsAdmin() {
		t.Fatal("stale admin token kept on the session")
	}
}

func TestAdminProductCRUD(t *testing.T) {
	s := newStack(t, handlers.AppConfig{})
	adm := s.browser(t)
	adminLogin(t, adm)

	form := url.Values{
		"name":        {"Kettle"},
		"sku":         {"KT-100"},
		"description": {"Boils water"},
		"price":       {"24.999"},
		"category":    {"Home & Kitchen"},
		"stock":       {"7"},
		"image":       {"https://img.example.com/kettle.jpg"},
		"tags":        {"kitchen, kitchen, tea"},
		"isActive":    {"1"},
	}
	r := adm.post("/admin/products", form)
	if r.status != http.StatusFound || r.header.Get("Location") != "/admin/products" {
		t.Fatalf("create: %d body=%s", r.status, r.body)
	}

	s.srv.Mu.Lock()
	p, ok := s.srv.Products["p-4"]
	s.srv.Mu.Unlock()
	if !ok {
		t.Fatal("product not created at the remote")
	}
	if p.Price != 25 || p.Stock == nil || *p.Stock != 7 || len(p.Tags) != 2 || !p.IsActive {
		t.Fatalf("unexpected product sent: %+v", p)
	}

	list := adm.get("/admin/products")
	if !strings.Contains(list.body, "Kettle") {
		t.Fatalf("new product missing from admin list")
	}

	edit := adm.get("/admin/products/p-4/edit")
	if edit.status != http.StatusOK || !strings.Contains(edit.body, `value="KT-100"`) {
		t.Fatalf("edit form: %d", edit.status)
	}

	form.Set("stock", "0")
	form.Del("isActive")
	if r := adm.post("/admin/products/p-4", form); r.status != http.StatusFound {
		t.Fatalf("update: %d body=%s", r.status, r.body)
	}
	s.srv.Mu.Lock()
	p = s.srv.Products["p-4"]
	s.srv.Mu.Unlock()
	if *p.Stock != 0 || p.IsActive {
		t.Fatalf("update not applied: %+v", p)
	}

	bad := url.Values{}
	for k, v := range form {
		bad[k] = v
	}
	bad.Set("category", "Weapons")
	if r := adm.post("/admin/products", bad); r.status != http.StatusBadRequest {
		t.Fatalf("bad category: expected 400, got %d", r.status)
	}

	if r := adm.post("/admin/products/p-4/delete", nil); r.status != http.StatusFound {
		t.Fatalf("delete: %d", r.status)
	}
	if r := adm.post("/admin/products/p-4/delete", nil); r.status != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", r.status)
	}
}
