package api

import (
	"context"
	"net/url"

	"shopfront/internal/domain"

	"github.com/gofiber/fiber/v2"
)

type OrdersAPI struct{ c *Client }

// Create submits an order. When the service echoes the stored order it is
// returned; otherwise the submitted one comes back.
func (o *OrdersAPI) Create(ctx context.Context, token string, order domain.Order) (domain.Order, error) {
	var out struct {
		Order *domain.Order `json:"order"`
	}
	if err := o.c.do(ctx, call{method: fiber.MethodPost, path: "/ecommerce/orders", token: token, body: order}, &out); err != nil {
		return domain.Order{}, err
	}
	if out.Order != nil {
		return *out.Order, nil
	}
	return order, nil
}

func (o *OrdersAPI) ListByUser(ctx context.Context, token, userID string) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	err := o.c.do(ctx, call{method: fiber.MethodGet, path: "/ecommerce/orders/" + url.PathEscape(userID), token: token}, &out)
	return out.Orders, err
}

func (o *OrdersAPI) UpdateStatus(ctx context.Context, token, userID, orderID, status string) error {
	body := struct {
		Status string `json:"status"`
	}{status}
	return o.c.do(ctx, call{
		method: fiber.MethodPut,
		path:   "/ecommerce/orders/" + url.PathEscape(userID) + "/" + url.PathEscape(orderID),
		token:  token,
		body:   body,
	}, nil)
}
