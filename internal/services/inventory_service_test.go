package services_test

import (
	"context"
	"testing"

	"shopfront/internal/api"
	"shopfront/internal/api/apitest"
	"shopfront/internal/domain"
	"shopfront/internal/services"
)

func TestInventoryService_CheckAvailability(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	svc := services.NewInventoryService(api.New(srv.URL, 0).Products)

	// in stock
	a, err := svc.CheckAvailability(context.Background(), "p-book", 4)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != "IN_STOCK" || *a.Qty != 10 || *a.Remaining != 6 {
		t.Fatalf("want IN_STOCK(10) with 6 left, got %+v", a)
	}

	// low stock, cart already holds more than is left
	a, err = svc.CheckAvailability(context.Background(), "p-lamp", 5)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != "LOW_STOCK" || *a.Remaining != 0 {
		t.Fatalf("want LOW_STOCK with nothing left, got %+v", a)
	}

	a, err = svc.CheckAvailability(context.Background(), "p-ball", 0)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != "OUT_OF_STOCK" {
		t.Fatalf("want OUT_OF_STOCK, got %+v", a)
	}

	if _, err := svc.CheckAvailability(context.Background(), "p-none", 0); err == nil {
		t.Fatal("expected an error for an unknown product")
	}
}

func TestAvailability_UnknownStock(t *testing.T) {
	a := services.Availability(domain.Product{ID: "p-x"}, 2)
	if a.Status != "UNKNOWN" || a.Qty != nil || a.Remaining != nil || a.InCart != 2 {
		t.Fatalf("want UNKNOWN without bounds, got %+v", a)
	}
}
