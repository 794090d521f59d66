// Package company defines the tenant credential model. Companies are the
// e-commerce tenants pushing order webhooks; each is identified on the wire
// solely by its webhook secret.
package company

import "time"

// KYCStatus is the verification state of a company.
type KYCStatus string

// KYC statuses. Only APPROVED companies may deliver webhooks.
const (
	KYCPending  KYCStatus = "PENDING"
	KYCApproved KYCStatus = "APPROVED"
	KYCRejected KYCStatus = "REJECTED"
)

// Company represents a registered e-commerce tenant. The credential fields
// (WebhookSecret, IsWebhookActive, KYCStatus) are written by the KYC approval
// flow and read-only to the webhook core.
type Company struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	BusinessEmail   string    `json:"business_email"`
	WebhookSecret   string    `json:"-"`
	IsWebhookActive bool      `json:"is_webhook_active"`
	KYCStatus       KYCStatus `json:"kyc_status"`
	CreatedAt       time.Time `json:"created_at"`
}

// CanDeliverWebhooks reports whether the company passes both activation and
// approval gates. A correct secret alone is not sufficient to authenticate.
func (c *Company) CanDeliverWebhooks() bool {
	return c.IsWebhookActive && c.KYCStatus == KYCApproved
}

// CreateRequest holds the fields required to register a new company.
type CreateRequest struct {
	Name          string `json:"name"`
	BusinessEmail string `json:"business_email"`
}
