// Package apitest runs an in-memory stand-in for the remote e-commerce
// service, for tests of code that goes through api.Client.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"shopfront/internal/domain"
)

const (
	UserToken  = "user-token"
	AdminToken = "admin-token"
	Password   = "Passw0rd!"
)

// Server is a fake remote API. Exported fields may be read after requests
// have been served; lock with Mu if requests may still be in flight.
type Server struct {
	*httptest.Server

	Mu       sync.Mutex
	Products map[string]domain.Product
	Order    []string               // product ids in listing order
	Users    map[string]domain.User // by email
	Orders   map[string][]domain.Order
	Admin    domain.Admin
	Requests []string // "METHOD path" of every request
}

func Int(n int) *int { return &n }

// New starts a server seeded with three products and one user,
// ada@example.com, whose password is Password.
func New() *Server {
	s := &Server{
		Products: map[string]domain.Product{},
		Users: map[string]domain.User{
			"ada@example.com": {ID: "u-ada", Name: "Ada", Email: "ada@example.com"},
		},
		Orders: map[string][]domain.Order{},
		Admin:  domain.Admin{ID: "a-root", Name: "Root", Email: "root@example.com", Role: "admin"},
	}
	s.Put(domain.Product{ID: "p-lamp", Name: "Desk Lamp", Description: "Warm light", Price: 19.99, Category: "Home & Kitchen", Image: "lamp.jpg", Stock: Int(3), Tags: []string{"light"}, IsActive: true, Rating: domain.Rating{Average: 4.1, Count: 10}, CreatedAt: "2024-01-02T00:00:00Z"})
	s.Put(domain.Product{ID: "p-book", Name: "Go Book", Description: "Concurrency patterns", Price: 39.5, Category: "Books", Image: "book.jpg", Stock: Int(10), Tags: []string{"golang"}, IsActive: true, Rating: domain.Rating{Average: 4.8, Count: 52}, CreatedAt: "2024-03-01T00:00:00Z"})
	s.Put(domain.Product{ID: "p-ball", Name: "Ball", Description: "Bouncy", Price: 5, Category: "Sports", Image: "ball.jpg", Stock: Int(0), IsActive: true, Rating: domain.Rating{Average: 3.2, Count: 4}, CreatedAt: "2023-12-24T00:00:00Z"})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ecommerce/products", s.listProducts)
	mux.HandleFunc("GET /ecommerce/products/{id}", s.getProduct)
	mux.HandleFunc("POST /ecommerce/login", s.login)
	mux.HandleFunc("POST /ecommerce/signup", s.signup)
	mux.HandleFunc("POST /ecommerce/orders", s.createOrder)
	mux.HandleFunc("GET /ecommerce/orders/{userId}", s.listOrders)
	mux.HandleFunc("PUT /ecommerce/orders/{userId}/{orderId}", s.updateOrder)

	mux.HandleFunc("POST /admin/login", s.adminLogin)
	mux.HandleFunc("GET /admin/verify-token", s.admin(s.adminProfile))
	mux.HandleFunc("GET /admin/profile", s.admin(s.adminProfile))
	mux.HandleFunc("GET /admin/products/stats", s.admin(s.stats))
	mux.HandleFunc("GET /admin/products", s.admin(s.listProducts))
	mux.HandleFunc("GET /admin/products/{id}", s.admin(s.getProduct))
	mux.HandleFunc("POST /admin/products", s.admin(s.saveProduct))
	mux.HandleFunc("PUT /admin/products/{id}", s.admin(s.saveProduct))
	mux.HandleFunc("DELETE /admin/products/{id}", s.admin(s.deleteProduct))

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Mu.Lock()
		s.Requests = append(s.Requests, r.Method+" "+r.URL.Path)
		s.Mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	return s
}

// Put inserts or replaces a product.
func (s *Server) Put(p domain.Product) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if _, ok := s.Products[p.ID]; !ok {
		s.Order = append(s.Order, p.ID)
	}
	s.Products[p.ID] = p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) != AdminToken {
			fail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, r)
	}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	q := r.URL.Query()
	out := []domain.Product{}
	for _, id := range s.Order {
		p, ok := s.Products[id]
		if !ok {
			continue
		}
		if c := q.Get("category"); c != "" && p.Category != c {
			continue
		}
		if t := strings.ToLower(q.Get("search")); t != "" && !strings.Contains(strings.ToLower(p.Name), t) {
			continue
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"products":   out,
		"pagination": domain.Pagination{CurrentPage: 1, TotalPages: 1, TotalProducts: len(out)},
	})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	p, ok := s.Products[r.PathValue("id")]
	s.Mu.Unlock()
	if !ok {
		fail(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": p})
}

type creds struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var c creds
	_ = json.NewDecoder(r.Body).Decode(&c)
	s.Mu.Lock()
	u, ok := s.Users[strings.ToLower(c.Email)]
	s.Mu.Unlock()
	if !ok || c.Password != Password {
		fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": UserToken, "user": u})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var c creds
	_ = json.NewDecoder(r.Body).Decode(&c)
	email := strings.ToLower(c.Email)
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if _, ok := s.Users[email]; ok {
		fail(w, http.StatusConflict, "User already exists")
		return
	}
	s.Users[email] = domain.User{ID: fmt.Sprintf("u-%d", len(s.Users)+1), Name: c.Name, Email: email}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "name": c.Name, "message": "Account created"})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	if bearer(r) != UserToken {
		fail(w, http.StatusUnauthorized, "Login required")
		return
	}
	var o domain.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil || len(o.Items) == 0 {
		fail(w, http.StatusBadRequest, "Order has no items")
		return
	}
	s.Mu.Lock()
	o.OrderID = fmt.Sprintf("o-%d", len(s.Orders[o.UserID])+1)
	o.Status = "pending"
	s.Orders[o.UserID] = append(s.Orders[o.UserID], o)
	s.Mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "order": o})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	orders := append([]domain.Order{}, s.Orders[r.PathValue("userId")]...)
	s.Mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": orders})
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.Mu.Lock()
	defer s.Mu.Unlock()
	orders := s.Orders[r.PathValue("userId")]
	for i := range orders {
		if orders[i].OrderID == r.PathValue("orderId") {
			orders[i].Status = body.Status
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	fail(w, http.StatusNotFound, "Order not found")
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var c creds
	_ = json.NewDecoder(r.Body).Decode(&c)
	if !strings.EqualFold(c.Email, s.Admin.Email) || c.Password != Password {
		fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": AdminToken, "admin": s.Admin})
}

func (s *Server) adminProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "admin": s.Admin})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	st := domain.Stats{CategoryStats: []domain.CategoryStat{}, LowStockProducts: []domain.Product{}, RecentProducts: []domain.Product{}}
	byCat := map[string]int{}
	for _, id := range s.Order {
		p := s.Products[id]
		st.TotalProducts++
		if p.IsActive {
			st.ActiveProducts++
		} else {
			st.InactiveProducts++
		}
		if p.Stock != nil && *p.Stock == 0 {
			st.OutOfStock++
		}
		if p.Stock != nil && *p.Stock > 0 && *p.Stock < 5 {
			st.LowStockProducts = append(st.LowStockProducts, p)
		}
		if _, seen := byCat[p.Category]; !seen {
			st.CategoryStats = append(st.CategoryStats, domain.CategoryStat{Category: p.Category})
		}
		byCat[p.Category]++
	}
	for i := range st.CategoryStats {
		st.CategoryStats[i].Count = byCat[st.CategoryStats[i].Category]
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": st})
}

func (s *Server) saveProduct(w http.ResponseWriter, r *http.Request) {
	var in struct {
		domain.Product
		Stock int `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		fail(w, http.StatusBadRequest, "Name is required")
		return
	}
	p := in.Product
	p.Stock = Int(in.Stock)
	status := http.StatusCreated
	if id := r.PathValue("id"); id != "" {
		s.Mu.Lock()
		_, ok := s.Products[id]
		s.Mu.Unlock()
		if !ok {
			fail(w, http.StatusNotFound, "Product not found")
			return
		}
		p.ID = id
		status = http.StatusOK
	} else {
		s.Mu.Lock()
		p.ID = fmt.Sprintf("p-%d", len(s.Order)+1)
		s.Mu.Unlock()
	}
	s.Put(p)
	writeJSON(w, status, map[string]any{"success": true, "product": p})
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	id := r.PathValue("id")
	if _, ok := s.Products[id]; !ok {
		fail(w, http.StatusNotFound, "Product not found")
		return
	}
	delete(s.Products, id)
	for i, x := range s.Order {
		if x == id {
			s.Order = append(s.Order[:i], s.Order[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
