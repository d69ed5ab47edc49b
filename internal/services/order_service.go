package services

import (
	"context"
	"errors"

	"shopfront/internal/api"
	"shopfront/internal/cart"
	"shopfront/internal/domain"

	"go.uber.org/zap"
)

type OrderPlacer interface {
	Create(ctx context.Context, token string, o domain.Order) (domain.Order, error)
	ListByUser(ctx context.Context, token, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, token, userID, orderID, status string) error
}

type OrderService struct {
	Carts  *CartService
	Orders OrderPlacer
	Log    *zap.Logger
}

func NewOrderService(carts *CartService, orders OrderPlacer, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{Carts: carts, Orders: orders, Log: logger}
}

// Place turns the session's cart into an order. Once the remote service has
// accepted it, the ordered quantities are taken out of the cart; anything
// added meanwhile stays.
func (s *OrderService) Place(ctx context.Context, sess *domain.Session, ship domain.ShippingAddress) (domain.Order, error) {
	if !sess.LoggedIn() {
		return domain.Order{}, ErrLoginRequired
	}
	store := s.Carts.Store(ctx, sess.ID)
	view := store.View()
	if len(view.Items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}

	order := domain.Order{
		UserID:          sess.UserID,
		Items:           OrderItems(view.Items),
		TotalAmount:     view.Subtotal,
		Status:          domain.OrderPending,
		ShippingAddress: ship,
	}
	placed, err := s.Orders.Create(ctx, sess.Token, order)
	if err != nil {
		return domain.Order{}, err
	}

	if err := store.Deduct(ctx, view.Items); err != nil {
		if !errors.Is(err, cart.ErrPersist) {
			return placed, err
		}
		s.Log.Warn("cart not persisted after checkout", zap.String("order_id", placed.OrderID), zap.Error(err))
	}
	return placed, nil
}

func (s *OrderService) History(ctx context.Context, sess *domain.Session) ([]domain.Order, error) {
	if !sess.LoggedIn() {
		return nil, ErrLoginRequired
	}
	return s.Orders.ListByUser(ctx, sess.Token, sess.UserID)
}

// Cancel withdraws one of the user's orders while it is still pending.
func (s *OrderService) Cancel(ctx context.Context, sess *domain.Session, orderID string) error {
	if !sess.LoggedIn() {
		return ErrLoginRequired
	}
	orders, err := s.Orders.ListByUser(ctx, sess.Token, sess.UserID)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if o.OrderID != orderID {
			continue
		}
		if o.Status != domain.OrderPending {
			return ErrNotCancelable
		}
		return s.Orders.UpdateStatus(ctx, sess.Token, sess.UserID, orderID, domain.OrderCancelled)
	}
	return api.ErrNotFound
}

func OrderItems(items []cart.LineItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
			Image:     it.ImageURL,
		})
	}
	return out
}
