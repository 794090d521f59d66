package service

import (
	"context"
	"fmt"

	"github.com/orderfellow/orderfellow/internal/domain/notification"
	"github.com/orderfellow/orderfellow/internal/domain/order"
	"github.com/orderfellow/orderfellow/internal/port/database"
)

// OrderService serves read queries over tracked orders: company listings,
// order detail, public customer tracking and per-company stats.
type OrderService struct {
	store database.Store
}

// NewOrderService creates an OrderService.
func NewOrderService(store database.Store) *OrderService {
	return &OrderService{store: store}
}

// Detail is one order with its full status timeline and notification audit log.
type Detail struct {
	Order         order.Order                 `json:"order"`
	History       []order.HistoryEntry        `json:"history"`
	Notifications []notification.Notification `json:"notifications"`
}

// TrackingView is the customer-facing shape of an order: no internal IDs,
// just what the customer needs to follow the delivery.
type TrackingView struct {
	ExternalOrderID string               `json:"externalOrderId"`
	Merchant        string               `json:"merchant"`
	ItemSummary     string               `json:"itemSummary"`
	DeliveryAddress string               `json:"deliveryAddress"`
	CurrentStatus   order.Status         `json:"currentStatus"`
	Timeline        []order.HistoryEntry `json:"timeline"`
}

// List returns one page of the company's orders, newest first.
func (s *OrderService) List(ctx context.Context, companyID string, page, limit int) (*order.Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.store.ListOrders(ctx, companyID, page, limit)
}

// Get returns one order with its history and notifications, scoped to the
// owning company.
func (s *OrderService) Get(ctx context.Context, companyID, orderID string) (*Detail, error) {
	o, err := s.store.GetCompanyOrder(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListOrderHistory(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}

	notifications, err := s.store.ListOrderNotifications(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load order notifications: %w", err)
	}

	return &Detail{Order: *o, History: history, Notifications: notifications}, nil
}

// TrackByEmail looks an order up by the customer's email and the merchant's
// order id. This is the public tracking query; it returns ErrNotFound for
// any miss without distinguishing which part failed to match.
func (s *OrderService) TrackByEmail(ctx context.Context, email, externalOrderID string) (*TrackingView, error) {
	o, err := s.store.FindOrderByCustomer(ctx, email, externalOrderID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListOrderHistory(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}

	merchant := ""
	if c, err := s.store.GetCompany(ctx, o.CompanyID); err == nil {
		merchant = c.Name
	}

	return &TrackingView{
		ExternalOrderID: o.ExternalOrderID,
		Merchant:        merchant,
		ItemSummary:     o.ItemSummary,
		DeliveryAddress: o.DeliveryAddress,
		CurrentStatus:   o.CurrentStatus,
		Timeline:        history,
	}, nil
}

// Stats returns the company's order counts broken down by status.
func (s *OrderService) Stats(ctx context.Context, companyID string) (*order.Stats, error) {
	return s.store.OrderStats(ctx, companyID)
}
