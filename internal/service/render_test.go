package service

import (
	"strings"
	"testing"
	"time"

	"github.com/orderfellow/orderfellow/internal/domain/order"
)

func TestRenderTrackingActivated(t *testing.T) {
	r := NewRenderer()
	body, err := r.TrackingActivated(testOrder())
	if err != nil {
		t.Fatalf("TrackingActivated: %v", err)
	}

	for _, want := range []string{"ORD-1001", "2x Widget", "1 Main St", "PENDING"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRenderStatusUpdate(t *testing.T) {
	r := NewRenderer()

	body, err := r.StatusUpdate(testOrder(), order.StatusOutForDelivery, "driver nearby")
	if err != nil {
		t.Fatalf("StatusUpdate: %v", err)
	}

	if !strings.Contains(body, "OUT FOR DELIVERY") {
		t.Error("status not humanized in body")
	}
	if !strings.Contains(body, "driver nearby") {
		t.Error("note missing from body")
	}
	if !strings.Contains(body, "📦") {
		t.Error("status emoji missing from body")
	}
}

func TestRenderStatusUpdateWithoutNote(t *testing.T) {
	r := NewRenderer()

	body, err := r.StatusUpdate(testOrder(), order.StatusDelivered, "")
	if err != nil {
		t.Fatalf("StatusUpdate: %v", err)
	}
	if strings.Contains(body, "Note:") {
		t.Error("note block rendered for empty note")
	}
}

func TestRenderStatusUpdateEscapesHTML(t *testing.T) {
	r := NewRenderer()

	body, err := r.StatusUpdate(testOrder(), order.StatusInTransit, `<script>alert("x")</script>`)
	if err != nil {
		t.Fatalf("StatusUpdate: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Error("note was not HTML-escaped")
	}
}

func TestRenderTestEmail(t *testing.T) {
	r := NewRenderer()
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	body, err := r.TestEmail(now)
	if err != nil {
		t.Fatalf("TestEmail: %v", err)
	}
	if !strings.Contains(body, now.Format(time.RFC1123)) {
		t.Error("sent-at timestamp missing from body")
	}
}

func TestSubjects(t *testing.T) {
	if got, want := TrackingActivatedSubject("A-1"), "Order A-1 - Tracking Activated"; got != want {
		t.Errorf("TrackingActivatedSubject = %q, want %q", got, want)
	}
	if got, want := StatusUpdateSubject("A-1"), "Order A-1 - Status Update"; got != want {
		t.Errorf("StatusUpdateSubject = %q, want %q", got, want)
	}
}
