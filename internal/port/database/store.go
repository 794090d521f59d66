// Package database defines the persistence port for orderfellow.
package database

import (
	"context"
	"time"

	"github.com/orderfellow/orderfellow/internal/domain/company"
	"github.com/orderfellow/orderfellow/internal/domain/notification"
	"github.com/orderfellow/orderfellow/internal/domain/order"
)

// Store is the port interface over the durable stores: company credentials,
// orders with their status history, and the notification log.
//
// CreateOrder and UpdateOrderStatus own their read-check-write cycles as
// single transactions; callers never observe uniqueness violations or
// torn order/history state.
type Store interface {
	// Companies (credential store; read path plus admin mutations).
	GetCompanyBySecret(ctx context.Context, secret string) (*company.Company, error)
	GetCompanyByEmail(ctx context.Context, email string) (*company.Company, error)
	GetCompany(ctx context.Context, id string) (*company.Company, error)
	CreateCompany(ctx context.Context, req company.CreateRequest) (*company.Company, error)
	ListCompanies(ctx context.Context) ([]company.Company, error)
	// ApproveCompany marks the company KYC-approved, stores the generated
	// webhook secret and activates webhook delivery, in one statement.
	ApproveCompany(ctx context.Context, id, secret string) error

	// Orders.
	//
	// CreateOrder inserts o and its first history entry atomically. When an
	// order with the same (company, external id) already exists, even one
	// committed by a concurrent request, the existing row is returned with
	// created=false and nothing is written.
	CreateOrder(ctx context.Context, o *order.Order, note string) (*order.Order, bool, error)
	// UpdateOrderStatus transitions the order and appends a history entry in
	// one transaction. A missing order yields domain.ErrNotFound; an
	// unchanged status yields changed=false with no writes.
	UpdateOrderStatus(ctx context.Context, companyID, externalOrderID string, newStatus order.Status, note string) (*order.Order, order.Status, bool, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	GetCompanyOrder(ctx context.Context, companyID, id string) (*order.Order, error)
	ListOrders(ctx context.Context, companyID string, page, limit int) (*order.Page, error)
	ListOrderHistory(ctx context.Context, orderID string) ([]order.HistoryEntry, error)
	FindOrderByCustomer(ctx context.Context, email, externalOrderID string) (*order.Order, error)
	OrderStats(ctx context.Context, companyID string) (*order.Stats, error)

	// Notification log.
	CreateNotification(ctx context.Context, n *notification.Notification) error
	UpdateNotificationOutcome(ctx context.Context, id string, out notification.Outcome) error
	ListRetryableNotifications(ctx context.Context, since time.Time) ([]notification.Notification, error)
	ListOrderNotifications(ctx context.Context, orderID string) ([]notification.Notification, error)
}
