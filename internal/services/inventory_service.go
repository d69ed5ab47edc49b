package services

import (
	"context"

	"shopfront/internal/domain"
)

type InventoryService struct {
	Prods ProductSource
}

func NewInventoryService(prods ProductSource) *InventoryService {
	return &InventoryService{Prods: prods}
}

// CheckAvailability converts the remote stock level into IN_STOCK /
// LOW_STOCK / OUT_OF_STOCK, or UNKNOWN when the API does not report stock.
// inCart is what the caller's cart already holds.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string, inCart int) (domain.Availability, error) {
	p, err := s.Prods.Get(ctx, "", productID)
	if err != nil {
		return domain.Availability{}, err
	}
	return Availability(p, inCart), nil
}

func Availability(p domain.Product, inCart int) domain.Availability {
	a := domain.Availability{ProductID: p.ID, Status: "UNKNOWN", InCart: inCart}
	if p.Stock == nil {
		return a
	}
	qty := *p.Stock
	left := max(qty-inCart, 0)
	a.Qty, a.Remaining = &qty, &left

	switch {
	case qty >= domain.LowStock:
		a.Status = "IN_STOCK"
	case qty > 0:
		a.Status = "LOW_STOCK"
	default:
		a.Status = "OUT_OF_STOCK"
	}
	return a
}
