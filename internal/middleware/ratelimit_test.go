package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func limitedRequest(companyID string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/order-received", nil)
	if companyID != "" {
		ctx := context.WithValue(r.Context(), companyCtxKey{}, companyID)
		r = r.WithContext(ctx)
	}
	return r
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(60, 5)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest("co-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest("co-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("co-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if !strings.Contains(rec.Body.String(), "rate limit exceeded") {
		t.Errorf("body = %q, want rate limit message", rec.Body.String())
	}
}

func TestRateLimiterIsolatesCompanies(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("co-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first company first request status = %d, want 200", rec.Code)
	}

	// co-1 is now exhausted; co-2 must still pass.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("co-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first company second request status = %d, want 429", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("co-2"))
	if rec.Code != http.StatusOK {
		t.Fatalf("second company status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterFallsBackToIP(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := limitedRequest("")
	r.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	r2 := limitedRequest("")
	r2.RemoteAddr = "10.0.0.1:9999" // same host, different port
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r2)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 for same client IP", rec.Code)
	}
}

func TestRateLimiterCleanupRemovesIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(60, 1)

	rl.allow("co-1")
	rl.mu.Lock()
	rl.buckets["co-1"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.cleanup(30 * time.Minute)

	rl.mu.Lock()
	_, exists := rl.buckets["co-1"]
	rl.mu.Unlock()
	if exists {
		t.Error("idle bucket survived cleanup")
	}
}
