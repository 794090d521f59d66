package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/orderfellow/orderfellow/internal/adapter/otel"
	"github.com/orderfellow/orderfellow/internal/adapter/ws"
	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/order"
	"github.com/orderfellow/orderfellow/internal/port/broadcast"
	"github.com/orderfellow/orderfellow/internal/port/database"
	"github.com/orderfellow/orderfellow/internal/port/messagequeue"
)

// Notifier schedules customer notifications for asynchronous delivery.
type Notifier interface {
	EnqueueTrackingActivated(orderID string)
	EnqueueStatusUpdate(orderID string, newStatus order.Status, note string)
}

// WebhookService processes authenticated webhook events: idempotent order
// creation and status updates. Side effects (notifications, integration
// events, live broadcasts) fire only when state actually changed.
type WebhookService struct {
	store       database.Store
	notifier    Notifier
	queue       messagequeue.Queue    // optional
	broadcaster broadcast.Broadcaster // optional
	metrics     *otel.Metrics
}

// NewWebhookService creates a WebhookService. queue, broadcaster and metrics
// may be nil; the corresponding side effects are then skipped.
func NewWebhookService(store database.Store, notifier Notifier, queue messagequeue.Queue, broadcaster broadcast.Broadcaster, metrics *otel.Metrics) *WebhookService {
	return &WebhookService{
		store:       store,
		notifier:    notifier,
		queue:       queue,
		broadcaster: broadcaster,
		metrics:     metrics,
	}
}

// ProcessOrderReceived handles the order-received webhook for the given
// company. Creation is idempotent on (company, external order id): a
// duplicate returns the existing order's state with Created false and
// triggers nothing.
func (s *WebhookService) ProcessOrderReceived(ctx context.Context, companyID string, req order.CreateRequest) (*order.CreateResult, error) {
	status := req.InitialStatus
	if status == "" {
		status = order.StatusPending
	}

	o := &order.Order{
		ID:              uuid.NewString(),
		CompanyID:       companyID,
		ExternalOrderID: req.ExternalOrderID,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ItemSummary:     req.ItemSummary,
		DeliveryAddress: req.DeliveryAddress,
		CurrentStatus:   status,
	}

	stored, created, err := s.store.CreateOrder(ctx, o, order.CreationNote)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if !created {
		if s.metrics != nil {
			s.metrics.DuplicateCreates.Add(ctx, 1)
		}
		slog.Info("duplicate order received",
			"company_id", companyID,
			"external_order_id", req.ExternalOrderID,
			"order_id", stored.ID,
		)
		return &order.CreateResult{OrderID: stored.ID, Status: stored.CurrentStatus, Created: false}, nil
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Add(ctx, 1)
	}
	slog.Info("order created",
		"company_id", companyID,
		"external_order_id", stored.ExternalOrderID,
		"order_id", stored.ID,
		"status", stored.CurrentStatus,
	)

	s.notifier.EnqueueTrackingActivated(stored.ID)

	event := ws.OrderCreatedEvent{
		OrderID:         stored.ID,
		CompanyID:       stored.CompanyID,
		ExternalOrderID: stored.ExternalOrderID,
		Status:          string(stored.CurrentStatus),
	}
	s.publish(ctx, messagequeue.SubjectOrderCreated, event)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, ws.EventOrderCreated, event)
	}

	return &order.CreateResult{OrderID: stored.ID, Status: stored.CurrentStatus, Created: true}, nil
}

// ProcessStatusUpdate handles the status-update webhook. Updating an order
// that does not exist for this company is a conflict, not a not-found: the
// sender referenced an order it never registered. A same-status update is a
// recorded no-op with no history entry and no side effects.
func (s *WebhookService) ProcessStatusUpdate(ctx context.Context, companyID string, req order.UpdateStatusRequest) (*order.UpdateResult, error) {
	updated, previous, changed, err := s.store.UpdateOrderStatus(ctx, companyID, req.ExternalOrderID, req.NewStatus, req.Note)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Order %s not found: %w", req.ExternalOrderID, domain.ErrConflict)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if !changed {
		if s.metrics != nil {
			s.metrics.StatusUnchanged.Add(ctx, 1)
		}
		slog.Info("status unchanged",
			"company_id", companyID,
			"external_order_id", req.ExternalOrderID,
			"status", updated.CurrentStatus,
		)
		return &order.UpdateResult{
			OrderID:        updated.ID,
			Changed:        false,
			PreviousStatus: previous,
			NewStatus:      updated.CurrentStatus,
		}, nil
	}

	if s.metrics != nil {
		s.metrics.StatusUpdates.Add(ctx, 1)
	}
	slog.Info("order status updated",
		"company_id", companyID,
		"external_order_id", req.ExternalOrderID,
		"order_id", updated.ID,
		"previous", previous,
		"new", updated.CurrentStatus,
	)

	s.notifier.EnqueueStatusUpdate(updated.ID, updated.CurrentStatus, req.Note)

	event := ws.OrderStatusEvent{
		OrderID:         updated.ID,
		CompanyID:       updated.CompanyID,
		ExternalOrderID: updated.ExternalOrderID,
		PreviousStatus:  string(previous),
		NewStatus:       string(updated.CurrentStatus),
		Note:            req.Note,
	}
	s.publish(ctx, messagequeue.SubjectStatusUpdated, event)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, ws.EventOrderStatus, event)
	}

	return &order.UpdateResult{
		OrderID:        updated.ID,
		Changed:        true,
		PreviousStatus: previous,
		NewStatus:      updated.CurrentStatus,
	}, nil
}

// publish emits a best-effort integration event. Failures never surface to
// the webhook caller.
func (s *WebhookService) publish(ctx context.Context, subject string, event any) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal integration event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish integration event", "subject", subject, "error", err)
	}
}
