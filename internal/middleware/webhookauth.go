// Package middleware provides HTTP middleware for orderfellow.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/company"
	"github.com/orderfellow/orderfellow/internal/port/cache"
)

// HeaderWebhookSecret is the credential header for all webhook endpoints.
const HeaderWebhookSecret = "X-Webhook-Secret"

type companyCtxKey struct{}

// CredentialSource resolves a webhook secret to the company that owns it.
// Implementations return domain.ErrNotFound (wrapped or bare) when no
// company matches the secret.
type CredentialSource interface {
	GetCompanyBySecret(ctx context.Context, secret string) (*company.Company, error)
}

// WebhookAuth returns middleware that authenticates webhook requests by the
// X-Webhook-Secret header. The header must carry exactly one value matching
// exactly one active, KYC-approved company; every failure mode collapses to
// the same generic 401 so callers cannot probe which check failed.
//
// Lookups are cached for ttl when c is non-nil, so credential revocations
// take effect within one TTL.
func WebhookAuth(src CredentialSource, c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secrets := r.Header.Values(HeaderWebhookSecret)
			if len(secrets) != 1 || secrets[0] == "" {
				unauthorized(w, r, "missing_credential", nil)
				return
			}
			secret := secrets[0]

			co, err := lookupCompany(r.Context(), src, c, ttl, secret)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					unauthorized(w, r, "invalid_credential", nil)
				} else {
					unauthorized(w, r, "credential_lookup_failed", err)
				}
				return
			}

			if !co.IsWebhookActive {
				unauthorized(w, r, "inactive_webhook", nil)
				return
			}
			if co.KYCStatus != company.KYCApproved {
				unauthorized(w, r, "kyc_not_approved", nil)
				return
			}

			ctx := context.WithValue(r.Context(), companyCtxKey{}, co.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CompanyIDFromContext returns the authenticated company ID, or "" if the
// request did not pass WebhookAuth.
func CompanyIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(companyCtxKey{}).(string)
	return id
}

// cachedCompany is the subset of company state the auth gate needs.
type cachedCompany struct {
	ID              string            `json:"id"`
	IsWebhookActive bool              `json:"is_webhook_active"`
	KYCStatus       company.KYCStatus `json:"kyc_status"`
}

func lookupCompany(ctx context.Context, src CredentialSource, c cache.Cache, ttl time.Duration, secret string) (*cachedCompany, error) {
	key := "whsec:" + secret

	if c != nil {
		if data, ok, err := c.Get(ctx, key); err == nil && ok {
			var cc cachedCompany
			if json.Unmarshal(data, &cc) == nil {
				return &cc, nil
			}
		}
	}

	co, err := src.GetCompanyBySecret(ctx, secret)
	if err != nil {
		return nil, err
	}

	cc := &cachedCompany{
		ID:              co.ID,
		IsWebhookActive: co.IsWebhookActive,
		KYCStatus:       co.KYCStatus,
	}
	if c != nil {
		if data, err := json.Marshal(cc); err == nil {
			_ = c.Set(ctx, key, data, ttl)
		}
	}
	return cc, nil
}

// unauthorized logs the real failure kind and writes the generic response.
func unauthorized(w http.ResponseWriter, r *http.Request, kind string, err error) {
	slog.Warn("webhook auth rejected",
		"kind", kind,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
		"error", err,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Invalid webhook credentials"}`))
}
