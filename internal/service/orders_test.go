package service

import (
	"context"
	"errors"
	"testing"

	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/company"
	"github.com/orderfellow/orderfellow/internal/domain/order"
)

func TestListClampsPagination(t *testing.T) {
	store := newMockStore()
	var gotPage, gotLimit int
	store.listOrdersFn = func(_ context.Context, _ string, page, limit int) (*order.Page, error) {
		gotPage, gotLimit = page, limit
		return &order.Page{Page: page, Limit: limit}, nil
	}
	svc := NewOrderService(store)

	if _, err := svc.List(context.Background(), "co-1", 0, 0); err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotPage != 1 || gotLimit != 20 {
		t.Errorf("page/limit = %d/%d, want defaults 1/20", gotPage, gotLimit)
	}

	if _, err := svc.List(context.Background(), "co-1", 3, 500); err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotPage != 3 || gotLimit != 20 {
		t.Errorf("page/limit = %d/%d, want 3/20 with oversized limit clamped", gotPage, gotLimit)
	}
}

func TestGetComposesDetail(t *testing.T) {
	store := newMockStore()
	store.getCompanyOrderFn = func(_ context.Context, companyID, id string) (*order.Order, error) {
		if companyID != "co-1" || id != "ord-1" {
			return nil, domain.ErrNotFound
		}
		return testOrder(), nil
	}
	store.listHistoryFn = func(_ context.Context, orderID string) ([]order.HistoryEntry, error) {
		return []order.HistoryEntry{
			{ID: "h-2", OrderID: orderID, Status: order.StatusInTransit},
			{ID: "h-1", OrderID: orderID, Status: order.StatusPending, Note: order.CreationNote},
		}, nil
	}
	svc := NewOrderService(store)

	detail, err := svc.Get(context.Background(), "co-1", "ord-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.Order.ID != "ord-1" {
		t.Errorf("order id = %s, want ord-1", detail.Order.ID)
	}
	if len(detail.History) != 2 {
		t.Errorf("history entries = %d, want 2", len(detail.History))
	}
}

func TestGetWrongCompanyIsNotFound(t *testing.T) {
	store := newMockStore()
	svc := NewOrderService(store)

	_, err := svc.Get(context.Background(), "other-co", "ord-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestTrackByEmail(t *testing.T) {
	store := newMockStore()
	store.findByCustomerFn = func(_ context.Context, email, externalOrderID string) (*order.Order, error) {
		if email != "jo@example.com" || externalOrderID != "ORD-1001" {
			return nil, domain.ErrNotFound
		}
		return testOrder(), nil
	}
	store.listHistoryFn = func(_ context.Context, orderID string) ([]order.HistoryEntry, error) {
		return []order.HistoryEntry{{ID: "h-1", OrderID: orderID, Status: order.StatusPending}}, nil
	}
	store.getCompanyFn = func(_ context.Context, id string) (*company.Company, error) {
		return &company.Company{ID: id, Name: "Acme Store"}, nil
	}
	svc := NewOrderService(store)

	view, err := svc.TrackByEmail(context.Background(), "jo@example.com", "ORD-1001")
	if err != nil {
		t.Fatalf("TrackByEmail: %v", err)
	}
	if view.Merchant != "Acme Store" {
		t.Errorf("merchant = %q, want Acme Store", view.Merchant)
	}
	if view.ExternalOrderID != "ORD-1001" {
		t.Errorf("external order id = %s, want ORD-1001", view.ExternalOrderID)
	}
	if len(view.Timeline) != 1 {
		t.Errorf("timeline entries = %d, want 1", len(view.Timeline))
	}
}

func TestTrackByEmailMismatchIsNotFound(t *testing.T) {
	store := newMockStore()
	svc := NewOrderService(store)

	_, err := svc.TrackByEmail(context.Background(), "wrong@example.com", "ORD-1001")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
