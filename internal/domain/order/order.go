// Package order defines the order domain model: orders, their append-only
// status history, and the webhook payloads that mutate them.
package order

import "time"

// Status is the tracking state of an order.
type Status string

// Order statuses. Any status may transition to any other; the only forbidden
// edge is a self-transition, which the ingestion engine treats as a no-op.
const (
	StatusPending        Status = "PENDING"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
)

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInTransit, StatusOutForDelivery, StatusDelivered:
		return true
	}
	return false
}

// CreationNote is the history note attached to the first entry of every order.
const CreationNote = "Order received and tracking initiated"

// Order is a tracked order. It is unique per company by ExternalOrderID, the
// identifier assigned by the tenant's own system.
type Order struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"company_id"`
	ExternalOrderID string    `json:"external_order_id"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	ItemSummary     string    `json:"item_summary"`
	DeliveryAddress string    `json:"delivery_address"`
	CurrentStatus   Status    `json:"current_status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HistoryEntry is one immutable status transition of an order. Entries are
// appended strictly in processing order; the newest entry's status always
// equals the order's CurrentStatus.
type HistoryEntry struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateRequest is the order-received webhook payload.
type CreateRequest struct {
	ExternalOrderID string `json:"externalOrderId" validate:"required,max=100"`
	CustomerEmail   string `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string `json:"customerPhone,omitempty" validate:"omitempty,max=32"`
	ItemSummary     string `json:"itemSummary" validate:"required,max=500"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required,max=500"`
	InitialStatus   Status `json:"initialStatus,omitempty" validate:"omitempty,oneof=PENDING IN_TRANSIT OUT_FOR_DELIVERY DELIVERED"`
}

// UpdateStatusRequest is the status-update webhook payload.
type UpdateStatusRequest struct {
	ExternalOrderID string `json:"externalOrderId" validate:"required,max=100"`
	NewStatus       Status `json:"newStatus" validate:"required,oneof=PENDING IN_TRANSIT OUT_FOR_DELIVERY DELIVERED"`
	Note            string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// CreateResult is the outcome of an idempotent order creation. Created is
// false when the order already existed, in which case Status reflects the
// existing row and no side effects were triggered.
type CreateResult struct {
	OrderID string
	Status  Status
	Created bool
}

// UpdateResult is the outcome of a status update. Changed is false for a
// self-transition, which appends no history and dispatches nothing.
type UpdateResult struct {
	OrderID        string
	Changed        bool
	PreviousStatus Status
	NewStatus      Status
}

// Summary is an order plus its most recent history entry, the shape served
// by the company order listing.
type Summary struct {
	Order
	LatestEntry *HistoryEntry `json:"latest_entry,omitempty"`
}

// Page is one page of a company's orders, newest first.
type Page struct {
	Orders []Summary `json:"data"`
	Page   int       `json:"page"`
	Limit  int       `json:"limit"`
	Total  int       `json:"total"`
	Pages  int       `json:"pages"`
}

// StatusCount is the stats breakdown for one status.
type StatusCount struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Stats summarizes a company's orders by status.
type Stats struct {
	Total    int                    `json:"total"`
	ByStatus map[Status]StatusCount `json:"byStatus"`
}
