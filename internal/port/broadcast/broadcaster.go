// Package broadcast defines the port for pushing events to connected clients.
package broadcast

import "context"

// Broadcaster fans an event out to every connected client. Implementations
// must not block the caller on slow consumers.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
