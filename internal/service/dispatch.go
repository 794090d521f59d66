// Package service contains the application services: webhook ingestion,
// notification dispatch and order queries.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/orderfellow/orderfellow/internal/adapter/otel"
	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/notification"
	"github.com/orderfellow/orderfellow/internal/domain/order"
	"github.com/orderfellow/orderfellow/internal/port/database"
	"github.com/orderfellow/orderfellow/internal/port/mail"
)

// job is one queued notification dispatch.
type job struct {
	kind      notification.Type
	orderID   string
	newStatus order.Status
	note      string
}

// Dispatcher renders and sends customer notifications off the request path.
// Webhook handlers hand a job to Enqueue* and return immediately; a fixed
// worker pool drains the queue. Every dispatch attempt persists exactly one
// Notification record with its outcome, and no failure on this path ever
// propagates back to the webhook caller.
type Dispatcher struct {
	store         database.Store
	transport     mail.Transport
	renderer      *Renderer
	metrics       *otel.Metrics
	jobs          chan job
	workers       int
	retryParallel int
	wg            sync.WaitGroup
	startOnce     sync.Once
	stopOnce      sync.Once
}

// NewDispatcher creates a Dispatcher with the given worker pool size and
// queue capacity.
func NewDispatcher(store database.Store, transport mail.Transport, workers, queueSize, retryParallel int, metrics *otel.Metrics) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if retryParallel < 1 {
		retryParallel = 1
	}
	return &Dispatcher{
		store:         store,
		transport:     transport,
		renderer:      NewRenderer(),
		metrics:       metrics,
		jobs:          make(chan job, queueSize),
		workers:       workers,
		retryParallel: retryParallel,
	}
}

// Start launches the worker pool. Workers run until Stop is called.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				for j := range d.jobs {
					d.process(context.Background(), j)
				}
			}()
		}
	})
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.jobs)
		d.wg.Wait()
	})
}

// EnqueueTrackingActivated schedules the first notification for a new order.
// The call never blocks: under sustained backpressure the job is dropped
// with a warning, which best-effort delivery permits.
func (d *Dispatcher) EnqueueTrackingActivated(orderID string) {
	d.enqueue(job{kind: notification.TypeTrackingActivated, orderID: orderID})
}

// EnqueueStatusUpdate schedules a status-change notification.
func (d *Dispatcher) EnqueueStatusUpdate(orderID string, newStatus order.Status, note string) {
	d.enqueue(job{kind: notification.TypeStatusUpdate, orderID: orderID, newStatus: newStatus, note: note})
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.jobs <- j:
	default:
		slog.Warn("notification queue full, dropping job", "type", j.kind, "order_id", j.orderID)
	}
}

// process runs one dispatch attempt end to end. Errors are logged and
// swallowed here; this is the boundary the webhook path never sees past.
func (d *Dispatcher) process(ctx context.Context, j job) {
	// Always dispatch from the current row, not the state at enqueue time.
	o, err := d.store.GetOrder(ctx, j.orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return // order vanished between trigger and execution
		}
		slog.Error("notification dispatch: load order", "order_id", j.orderID, "error", err)
		return
	}

	var subject, body string
	switch j.kind {
	case notification.TypeTrackingActivated:
		subject = TrackingActivatedSubject(o.ExternalOrderID)
		body, err = d.renderer.TrackingActivated(o)
	case notification.TypeStatusUpdate:
		subject = StatusUpdateSubject(o.ExternalOrderID)
		body, err = d.renderer.StatusUpdate(o, j.newStatus, j.note)
	default:
		slog.Error("notification dispatch: unknown type", "type", j.kind)
		return
	}
	if err != nil {
		slog.Error("notification dispatch: render", "order_id", j.orderID, "error", err)
		return
	}

	n := &notification.Notification{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		Type:      j.kind,
		Recipient: o.CustomerEmail,
		Subject:   subject,
		Body:      body,
	}
	applyOutcome(n, d.send(ctx, n.Recipient, n.Subject, n.Body))

	// The audit record is written once per attempt, whatever the transport said.
	if err := d.store.CreateNotification(ctx, n); err != nil {
		slog.Error("notification dispatch: persist record", "order_id", j.orderID, "error", err)
		return
	}

	d.count(ctx, n.Status)
	slog.Info("notification dispatched",
		"type", n.Type,
		"order_id", n.OrderID,
		"recipient", n.Recipient,
		"status", n.Status,
	)
}

// send calls the mail transport and normalizes the outcome.
func (d *Dispatcher) send(ctx context.Context, to, subject, body string) error {
	_, err := d.transport.Send(ctx, to, subject, body)
	return err
}

// applyOutcome writes the SENT/FAILED fields onto n: exactly one of
// SentAt/FailedAt set, ErrorMsg iff FAILED.
func applyOutcome(n *notification.Notification, sendErr error) {
	now := time.Now().UTC()
	if sendErr != nil {
		n.Status = notification.StatusFailed
		n.FailedAt = &now
		n.SentAt = nil
		n.ErrorMsg = sendErr.Error()
		return
	}
	n.Status = notification.StatusSent
	n.SentAt = &now
	n.FailedAt = nil
	n.ErrorMsg = ""
}

// RetryFailed resends every FAILED notification created within the retry
// window, using the persisted recipient/subject/body verbatim and updating
// each record in place. Retries run with bounded parallelism; records are
// independent and no cross-record ordering is guaranteed. An empty candidate
// set returns {0,0,0} without touching the transport.
func (d *Dispatcher) RetryFailed(ctx context.Context) (notification.RetryResult, error) {
	cutoff := time.Now().Add(-notification.RetryWindow)
	candidates, err := d.store.ListRetryableNotifications(ctx, cutoff)
	if err != nil {
		return notification.RetryResult{}, err
	}

	result := notification.RetryResult{Total: len(candidates)}
	if result.Total == 0 {
		return result, nil
	}

	slog.Info("retrying failed notifications", "count", result.Total)

	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(d.retryParallel))
	var wg sync.WaitGroup

	// If the context is cancelled mid-batch, stop launching retries but wait
	// for the in-flight ones so the returned counts are final.
	var acquireErr error
	for i := range candidates {
		n := candidates[i]
		if acquireErr = sem.Acquire(ctx, 1); acquireErr != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			sendErr := d.send(ctx, n.Recipient, n.Subject, n.Body)
			applyOutcome(&n, sendErr)

			out := notification.Outcome{
				Status:   n.Status,
				SentAt:   n.SentAt,
				FailedAt: n.FailedAt,
				ErrorMsg: n.ErrorMsg,
			}
			if err := d.store.UpdateNotificationOutcome(ctx, n.ID, out); err != nil {
				slog.Error("retry: update notification", "id", n.ID, "error", err)
			}

			if d.metrics != nil {
				d.metrics.NotificationRetries.Add(ctx, 1)
			}
			mu.Lock()
			if sendErr == nil {
				result.Success++
			} else {
				result.Failed++
			}
			mu.Unlock()
		}()
	}

	wg.Wait()
	if acquireErr != nil {
		return result, acquireErr
	}
	slog.Info("retry complete", "total", result.Total, "success", result.Success, "failed", result.Failed)
	return result, nil
}

func (d *Dispatcher) count(ctx context.Context, status notification.Status) {
	if d.metrics == nil {
		return
	}
	if status == notification.StatusSent {
		d.metrics.NotificationsSent.Add(ctx, 1)
	} else {
		d.metrics.NotificationsFailed.Add(ctx, 1)
	}
}
