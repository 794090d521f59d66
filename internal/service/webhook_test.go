package service

import (
	"context"
	"errors"
	"testing"

	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/order"
)

func TestProcessOrderReceivedCreatesWithDefaults(t *testing.T) {
	store := newMockStore()
	var inserted *order.Order
	store.createOrderFn = func(_ context.Context, o *order.Order, note string) (*order.Order, bool, error) {
		if note != order.CreationNote {
			t.Errorf("creation note = %q, want %q", note, order.CreationNote)
		}
		inserted = o
		return o, true, nil
	}

	notifier := &mockNotifier{}
	svc := NewWebhookService(store, notifier, nil, nil, nil)

	result, err := svc.ProcessOrderReceived(context.Background(), "co-1", order.CreateRequest{
		ExternalOrderID: "ORD-1001",
		CustomerEmail:   "jo@example.com",
		ItemSummary:     "2x Widget",
		DeliveryAddress: "1 Main St",
	})
	if err != nil {
		t.Fatalf("ProcessOrderReceived: %v", err)
	}

	if !result.Created {
		t.Error("expected Created=true")
	}
	if result.Status != order.StatusPending {
		t.Errorf("status = %s, want PENDING default", result.Status)
	}
	if inserted.CompanyID != "co-1" {
		t.Errorf("company id = %s, want co-1", inserted.CompanyID)
	}
	if inserted.ID == "" {
		t.Error("expected generated order id")
	}
	if len(notifier.activated) != 1 || notifier.activated[0] != inserted.ID {
		t.Errorf("tracking notification enqueued for %v, want [%s]", notifier.activated, inserted.ID)
	}
}

func TestProcessOrderReceivedHonorsInitialStatus(t *testing.T) {
	store := newMockStore()
	store.createOrderFn = func(_ context.Context, o *order.Order, _ string) (*order.Order, bool, error) {
		return o, true, nil
	}
	svc := NewWebhookService(store, &mockNotifier{}, nil, nil, nil)

	result, err := svc.ProcessOrderReceived(context.Background(), "co-1", order.CreateRequest{
		ExternalOrderID: "ORD-1002",
		CustomerEmail:   "jo@example.com",
		ItemSummary:     "1x Widget",
		DeliveryAddress: "1 Main St",
		InitialStatus:   order.StatusInTransit,
	})
	if err != nil {
		t.Fatalf("ProcessOrderReceived: %v", err)
	}
	if result.Status != order.StatusInTransit {
		t.Errorf("status = %s, want IN_TRANSIT", result.Status)
	}
}

func TestProcessOrderReceivedDuplicateTriggersNothing(t *testing.T) {
	existing := &order.Order{
		ID:              "ord-1",
		CompanyID:       "co-1",
		ExternalOrderID: "ORD-1001",
		CurrentStatus:   order.StatusInTransit,
	}
	store := newMockStore()
	store.createOrderFn = func(_ context.Context, _ *order.Order, _ string) (*order.Order, bool, error) {
		return existing, false, nil
	}

	notifier := &mockNotifier{}
	svc := NewWebhookService(store, notifier, nil, nil, nil)

	result, err := svc.ProcessOrderReceived(context.Background(), "co-1", order.CreateRequest{
		ExternalOrderID: "ORD-1001",
		CustomerEmail:   "jo@example.com",
		ItemSummary:     "2x Widget",
		DeliveryAddress: "1 Main St",
	})
	if err != nil {
		t.Fatalf("ProcessOrderReceived: %v", err)
	}

	if result.Created {
		t.Error("expected Created=false for duplicate")
	}
	if result.OrderID != "ord-1" {
		t.Errorf("order id = %s, want existing ord-1", result.OrderID)
	}
	if result.Status != order.StatusInTransit {
		t.Errorf("status = %s, want existing IN_TRANSIT", result.Status)
	}
	if len(notifier.activated) != 0 {
		t.Errorf("duplicate must not enqueue notifications, got %v", notifier.activated)
	}
}

func TestProcessStatusUpdateChanged(t *testing.T) {
	updated := &order.Order{
		ID:              "ord-1",
		CompanyID:       "co-1",
		ExternalOrderID: "ORD-1001",
		CurrentStatus:   order.StatusDelivered,
	}
	store := newMockStore()
	store.updateOrderStatusFn = func(_ context.Context, companyID, externalOrderID string, newStatus order.Status, note string) (*order.Order, order.Status, bool, error) {
		if companyID != "co-1" || externalOrderID != "ORD-1001" {
			t.Errorf("lookup (%s, %s), want (co-1, ORD-1001)", companyID, externalOrderID)
		}
		return updated, order.StatusOutForDelivery, true, nil
	}

	notifier := &mockNotifier{}
	svc := NewWebhookService(store, notifier, nil, nil, nil)

	result, err := svc.ProcessStatusUpdate(context.Background(), "co-1", order.UpdateStatusRequest{
		ExternalOrderID: "ORD-1001",
		NewStatus:       order.StatusDelivered,
		Note:            "left at door",
	})
	if err != nil {
		t.Fatalf("ProcessStatusUpdate: %v", err)
	}

	if !result.Changed {
		t.Error("expected Changed=true")
	}
	if result.PreviousStatus != order.StatusOutForDelivery {
		t.Errorf("previous = %s, want OUT_FOR_DELIVERY", result.PreviousStatus)
	}
	if result.NewStatus != order.StatusDelivered {
		t.Errorf("new = %s, want DELIVERED", result.NewStatus)
	}
	if len(notifier.statusOrders) != 1 {
		t.Errorf("expected one status notification, got %d", len(notifier.statusOrders))
	}
}

func TestProcessStatusUpdateUnchangedIsNoOp(t *testing.T) {
	same := &order.Order{
		ID:              "ord-1",
		CompanyID:       "co-1",
		ExternalOrderID: "ORD-1001",
		CurrentStatus:   order.StatusInTransit,
	}
	store := newMockStore()
	store.updateOrderStatusFn = func(_ context.Context, _, _ string, _ order.Status, _ string) (*order.Order, order.Status, bool, error) {
		return same, order.StatusInTransit, false, nil
	}

	notifier := &mockNotifier{}
	svc := NewWebhookService(store, notifier, nil, nil, nil)

	result, err := svc.ProcessStatusUpdate(context.Background(), "co-1", order.UpdateStatusRequest{
		ExternalOrderID: "ORD-1001",
		NewStatus:       order.StatusInTransit,
	})
	if err != nil {
		t.Fatalf("ProcessStatusUpdate: %v", err)
	}

	if result.Changed {
		t.Error("expected Changed=false for same-status update")
	}
	if len(notifier.statusOrders) != 0 {
		t.Errorf("no-op update must not enqueue notifications, got %v", notifier.statusOrders)
	}
}

func TestProcessStatusUpdateUnknownOrderIsConflict(t *testing.T) {
	store := newMockStore()
	store.updateOrderStatusFn = func(_ context.Context, _, _ string, _ order.Status, _ string) (*order.Order, order.Status, bool, error) {
		return nil, "", false, domain.ErrNotFound
	}

	svc := NewWebhookService(store, &mockNotifier{}, nil, nil, nil)

	_, err := svc.ProcessStatusUpdate(context.Background(), "co-1", order.UpdateStatusRequest{
		ExternalOrderID: "ORD-MISSING",
		NewStatus:       order.StatusDelivered,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}
