package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "orderfellow"

// Metrics holds all orderfellow metric instruments.
type Metrics struct {
	OrdersCreated       metric.Int64Counter
	DuplicateCreates    metric.Int64Counter
	StatusUpdates       metric.Int64Counter
	StatusUnchanged     metric.Int64Counter
	NotificationsSent   metric.Int64Counter
	NotificationsFailed metric.Int64Counter
	NotificationRetries metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.OrdersCreated, err = meter.Int64Counter("orderfellow.orders.created",
		metric.WithDescription("Orders created via webhook"))
	if err != nil {
		return nil, err
	}

	m.DuplicateCreates, err = meter.Int64Counter("orderfellow.orders.duplicate_creates",
		metric.WithDescription("Creation webhooks that matched an existing order"))
	if err != nil {
		return nil, err
	}

	m.StatusUpdates, err = meter.Int64Counter("orderfellow.orders.status_updates",
		metric.WithDescription("Accepted status transitions"))
	if err != nil {
		return nil, err
	}

	m.StatusUnchanged, err = meter.Int64Counter("orderfellow.orders.status_unchanged",
		metric.WithDescription("Status updates rejected as no-ops"))
	if err != nil {
		return nil, err
	}

	m.NotificationsSent, err = meter.Int64Counter("orderfellow.notifications.sent",
		metric.WithDescription("Notifications delivered to the mail transport"))
	if err != nil {
		return nil, err
	}

	m.NotificationsFailed, err = meter.Int64Counter("orderfellow.notifications.failed",
		metric.WithDescription("Notification dispatches that failed"))
	if err != nil {
		return nil, err
	}

	m.NotificationRetries, err = meter.Int64Counter("orderfellow.notifications.retries",
		metric.WithDescription("Notification retry attempts"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
