package handlers

import (
	"shopfront/internal/api"
	"shopfront/internal/metrics"
	"shopfront/internal/repos"
	"shopfront/internal/services"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Deps struct {
	Auth    *services.AuthService
	Carts   *services.CartService
	Catalog *services.CatalogService
	Orders  *services.OrderService
	Admin   *services.AdminService
	Inv     *services.InventoryService
	Metrics *metrics.Metrics

	ProductHandler   *ProductHandler
	CartHandler      *CartHandler
	AuthHandler      *AuthHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
	InventoryHandler *InventoryHandler
}

func NewDeps(db *sqlx.DB, client *api.Client, carts *services.CartService, logger *zap.Logger) *Deps {
	sessRepo := repos.NewSessionRepo(db)

	authSvc := services.NewAuthService(client.Auth, sessRepo, carts)
	catalogSvc := services.NewCatalogService(client.Products)
	orderSvc := services.NewOrderService(carts, client.Orders, logger)
	adminSvc := services.NewAdminService(client.Admin, client.Admin.Products, sessRepo)
	invSvc := services.NewInventoryService(client.Products)

	return &Deps{
		Auth:    authSvc,
		Carts:   carts,
		Catalog: catalogSvc,
		Orders:  orderSvc,
		Admin:   adminSvc,
		Inv:     invSvc,

		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		CartHandler:      &CartHandler{Carts: carts},
		AuthHandler:      &AuthHandler{Auth: authSvc},
		OrderHandler:     &OrderHandler{Orders: orderSvc},
		AdminHandler:     &AdminHandler{Admin: adminSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
	}
}

// WithMetrics makes the app record cart, order and request metrics on m and
// serve them at /metrics.
func (d *Deps) WithMetrics(m *metrics.Metrics) *Deps {
	d.Metrics = m
	d.CartHandler.Metrics = m
	d.OrderHandler.Metrics = m
	m.WatchOpenCarts(d.Carts.Open)
	return d
}
