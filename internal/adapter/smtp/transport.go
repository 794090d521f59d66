// Package smtp implements the mail transport port over plain SMTP.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/google/uuid"

	"github.com/orderfellow/orderfellow/internal/config"
	"github.com/orderfellow/orderfellow/internal/port/mail"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// Transport sends email via SMTP. A circuit breaker sheds load during
// outages so queued dispatches fail fast instead of piling up on timeouts.
type Transport struct {
	cfg  config.SMTP
	brk  *breaker
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a new SMTP transport.
func New(cfg config.SMTP) *Transport {
	return &Transport{
		cfg:  cfg,
		brk:  newBreaker(breakerThreshold, breakerCooldown),
		send: smtp.SendMail,
	}
}

// Send delivers one HTML email. SMTP reports no message id, so an internal
// one is generated for the audit trail.
func (t *Transport) Send(_ context.Context, to, subject, html string) (mail.Result, error) {
	if err := t.brk.ready(); err != nil {
		return mail.Result{}, err
	}

	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	messageID := uuid.NewString()

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMessage-ID: <%s@orderfellow>\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		t.cfg.From, to, subject, messageID, html)

	var auth smtp.Auth
	if t.cfg.Password != "" {
		user := t.cfg.User
		if user == "" {
			user = t.cfg.From
		}
		auth = smtp.PlainAuth("", user, t.cfg.Password, t.cfg.Host)
	}

	err := t.send(addr, auth, t.cfg.From, []string{to}, []byte(msg))
	t.brk.record(err)
	if err != nil {
		return mail.Result{}, fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return mail.Result{MessageID: messageID}, nil
}
