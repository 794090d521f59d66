// Package messagequeue defines the integration-event queue port.
package messagequeue

import "context"

// Subjects for order integration events.
const (
	SubjectOrderCreated  = "orders.created"
	SubjectStatusUpdated = "orders.status_updated"
)

// Queue publishes integration events for downstream consumers. Publishing is
// best effort from the webhook path: a failed publish is logged and swallowed.
type Queue interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}
