package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/company"
)

type fakeSource struct {
	mu      sync.Mutex
	lookups int
	company *company.Company
}

func (f *fakeSource) GetCompanyBySecret(_ context.Context, secret string) (*company.Company, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	if f.company == nil || f.company.WebhookSecret != secret {
		return nil, domain.ErrNotFound
	}
	return f.company, nil
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	return data, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func approvedCompany(secret string) *company.Company {
	return &company.Company{
		ID:              "co-1",
		Name:            "Acme Store",
		WebhookSecret:   secret,
		IsWebhookActive: true,
		KYCStatus:       company.KYCApproved,
	}
}

func authRequest(secrets ...string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/order-received", nil)
	for _, s := range secrets {
		r.Header.Add(HeaderWebhookSecret, s)
	}
	return r
}

func runAuth(t *testing.T, src CredentialSource, r *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seenCompany string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seenCompany = CompanyIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	WebhookAuth(src, nil, time.Minute)(next).ServeHTTP(rec, r)
	return rec, seenCompany
}

func TestWebhookAuthAccepted(t *testing.T) {
	src := &fakeSource{company: approvedCompany("whsec_good")}

	rec, companyID := runAuth(t, src, authRequest("whsec_good"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if companyID != "co-1" {
		t.Errorf("company id in context = %q, want co-1", companyID)
	}
}

func TestWebhookAuthRejections(t *testing.T) {
	tests := []struct {
		name    string
		company *company.Company
		secrets []string
	}{
		{
			name:    "missing header",
			company: approvedCompany("whsec_good"),
			secrets: nil,
		},
		{
			name:    "empty header",
			company: approvedCompany("whsec_good"),
			secrets: []string{""},
		},
		{
			name:    "multiple header values",
			company: approvedCompany("whsec_good"),
			secrets: []string{"whsec_good", "whsec_other"},
		},
		{
			name:    "unknown secret",
			company: approvedCompany("whsec_good"),
			secrets: []string{"whsec_wrong"},
		},
		{
			name: "inactive webhook",
			company: &company.Company{
				ID: "co-1", WebhookSecret: "whsec_good",
				IsWebhookActive: false, KYCStatus: company.KYCApproved,
			},
			secrets: []string{"whsec_good"},
		},
		{
			name: "kyc pending",
			company: &company.Company{
				ID: "co-1", WebhookSecret: "whsec_good",
				IsWebhookActive: true, KYCStatus: company.KYCPending,
			},
			secrets: []string{"whsec_good"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{company: tt.company}
			rec, companyID := runAuth(t, src, authRequest(tt.secrets...))

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			// All failure modes return the identical generic body.
			if !strings.Contains(rec.Body.String(), "Invalid webhook credentials") {
				t.Errorf("body = %q, want generic credentials message", rec.Body.String())
			}
			if companyID != "" {
				t.Error("next handler ran despite rejection")
			}
		})
	}
}

func TestWebhookAuthCachesLookups(t *testing.T) {
	src := &fakeSource{company: approvedCompany("whsec_good")}
	c := newMemCache()
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	handler := WebhookAuth(src, c, time.Minute)(next)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authRequest("whsec_good"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	if src.lookups != 1 {
		t.Errorf("source lookups = %d, want 1 with warm cache", src.lookups)
	}
}
