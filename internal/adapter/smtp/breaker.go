package smtp

import (
	"errors"
	"sync"
	"time"
)

// errMailCircuitOpen is returned while the transport is cooling down after
// repeated delivery failures. Dispatch records it like any other send error,
// so the notification stays retryable.
var errMailCircuitOpen = errors.New("mail transport circuit open")

// breaker fails fast during SMTP outages instead of stalling every dispatch
// worker on dial timeouts. It opens after threshold consecutive failures and
// admits the next attempt once the cooldown has passed.
type breaker struct {
	mu          sync.Mutex
	threshold   int
	cooldown    time.Duration
	consecutive int
	openUntil   time.Time
	now         func() time.Time
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// ready reports whether an attempt may proceed.
func (b *breaker) ready() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.now().Before(b.openUntil) {
		return errMailCircuitOpen
	}
	return nil
}

// record feeds the outcome of one attempt back into the breaker.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.consecutive = 0
		b.openUntil = time.Time{}
		return
	}
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
	}
}
