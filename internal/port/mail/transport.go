// Package mail defines the email transport port.
package mail

import "context"

// Result carries transport metadata from a successful send. The message ID
// is advisory; delivery tracking beyond transport success is out of scope.
type Result struct {
	MessageID string
}

// Transport delivers a single HTML email. The transport owns its own timeout
// policy; callers treat a returned error as a FAILED dispatch outcome, never
// as a reason to fail the operation that triggered the send.
type Transport interface {
	Send(ctx context.Context, to, subject, html string) (Result, error)
}
