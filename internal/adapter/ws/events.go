package ws

// Event type constants for WebSocket messages.
const (
	EventOrderCreated = "order.created"
	EventOrderStatus  = "order.status"
)

// OrderCreatedEvent is broadcast when a new order starts tracking.
type OrderCreatedEvent struct {
	OrderID         string `json:"order_id"`
	CompanyID       string `json:"company_id"`
	ExternalOrderID string `json:"external_order_id"`
	Status          string `json:"status"`
}

// OrderStatusEvent is broadcast when an order's status changes.
type OrderStatusEvent struct {
	OrderID         string `json:"order_id"`
	CompanyID       string `json:"company_id"`
	ExternalOrderID string `json:"external_order_id"`
	PreviousStatus  string `json:"previous_status"`
	NewStatus       string `json:"new_status"`
	Note            string `json:"note,omitempty"`
}
