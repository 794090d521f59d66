// Package notification defines the notification audit log model.
package notification

import "time"

// Type identifies what a notification is about.
type Type string

// Notification types.
const (
	TypeTrackingActivated Type = "TRACKING_ACTIVATED"
	TypeStatusUpdate      Type = "STATUS_UPDATE"
)

// Status is the transport outcome of a dispatch attempt.
type Status string

// Dispatch outcomes.
const (
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// RetryWindow bounds batch retry: FAILED records older than this are left
// for audit but never auto-retried.
const RetryWindow = 24 * time.Hour

// Notification is the persisted audit record of one dispatch. The rendered
// Recipient/Subject/Body are stored so a retry can resend exactly what was
// originally composed, without re-rendering. A retry mutates the same record
// in place; records are never duplicated.
//
// Exactly one of SentAt/FailedAt is set, and ErrorMsg is set iff the status
// is FAILED.
type Notification struct {
	ID        string     `json:"id"`
	OrderID   string     `json:"order_id"`
	Type      Type       `json:"type"`
	Recipient string     `json:"recipient"`
	Subject   string     `json:"subject"`
	Body      string     `json:"-"`
	Status    Status     `json:"status"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	FailedAt  *time.Time `json:"failed_at,omitempty"`
	ErrorMsg  string     `json:"error_msg,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Outcome is the mutable slice of a Notification written after each attempt.
type Outcome struct {
	Status   Status
	SentAt   *time.Time
	FailedAt *time.Time
	ErrorMsg string
}

// RetryResult aggregates one RetryFailed batch.
type RetryResult struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}
