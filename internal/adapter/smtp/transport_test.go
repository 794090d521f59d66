package smtp

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/orderfellow/orderfellow/internal/config"
)

func testTransport(sendErr error) (*Transport, *[]string) {
	var msgs []string
	t := New(config.SMTP{Host: "mail.test", Port: 25, From: "orders@shop.test"})
	t.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		msgs = append(msgs, string(msg))
		return sendErr
	}
	return t, &msgs
}

func TestSendBuildsMessage(t *testing.T) {
	tr, msgs := testTransport(nil)

	result, err := tr.Send(context.Background(), "jo@example.com", "Order A-1 - Tracking Activated", "<p>hi</p>")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if result.MessageID == "" {
		t.Error("expected generated message id")
	}

	msg := (*msgs)[0]
	for _, want := range []string{
		"From: orders@shop.test",
		"To: jo@example.com",
		"Subject: Order A-1 - Tracking Activated",
		"Content-Type: text/html",
		"<p>hi</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendWrapsTransportError(t *testing.T) {
	tr, _ := testTransport(errors.New("connection refused"))

	_, err := tr.Send(context.Background(), "jo@example.com", "s", "b")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("err = %v, want wrapped transport error", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	tr, msgs := testTransport(errors.New("down"))

	for i := 0; i < breakerThreshold; i++ {
		if _, err := tr.Send(context.Background(), "jo@example.com", "s", "b"); err == nil {
			t.Fatal("expected send failure")
		}
	}
	attempts := len(*msgs)

	// Circuit is open: the wire is no longer touched.
	_, err := tr.Send(context.Background(), "jo@example.com", "s", "b")
	if !errors.Is(err, errMailCircuitOpen) {
		t.Fatalf("err = %v, want circuit open", err)
	}
	if len(*msgs) != attempts {
		t.Error("open circuit still reached the transport")
	}
}

func TestBreakerRecoversAfterCooldown(t *testing.T) {
	b := newBreaker(2, time.Minute)
	current := time.Unix(1000, 0)
	b.now = func() time.Time { return current }

	b.record(errors.New("x"))
	b.record(errors.New("x"))
	if err := b.ready(); !errors.Is(err, errMailCircuitOpen) {
		t.Fatal("breaker should be open after threshold failures")
	}

	current = current.Add(2 * time.Minute)
	if err := b.ready(); err != nil {
		t.Fatalf("breaker should admit attempts after cooldown, got %v", err)
	}

	b.record(nil)
	if err := b.ready(); err != nil {
		t.Fatalf("breaker should close after success, got %v", err)
	}
}
