package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orderfellow/orderfellow/internal/adapter/ws"
	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/order"
	"github.com/orderfellow/orderfellow/internal/middleware"
	"github.com/orderfellow/orderfellow/internal/service"
)

// Pinger reports connectivity of a backing dependency. *pgxpool.Pool
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Webhooks *service.WebhookService
	Orders   *service.OrderService
	Hub      *ws.Hub

	// DB is pinged by the health endpoint when set.
	DB Pinger

	validate *validator.Validate
}

// NewHandlers creates the handler set.
func NewHandlers(webhooks *service.WebhookService, orders *service.OrderService, hub *ws.Hub) *Handlers {
	return &Handlers{
		Webhooks: webhooks,
		Orders:   orders,
		Hub:      hub,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ---------------------------------------------------------------------------
// Webhook handlers
// ---------------------------------------------------------------------------

type webhookAckResponse struct {
	Success        bool   `json:"success"`
	OrderID        string `json:"orderId,omitempty"`
	TrackingStatus string `json:"trackingStatus,omitempty"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	NewStatus      string `json:"newStatus,omitempty"`
	CurrentStatus  string `json:"currentStatus,omitempty"`
	Message        string `json:"message"`
}

// HandleOrderReceived processes the order-received webhook. Replaying the
// same order acknowledges with the existing order's state instead of failing,
// so senders can retry safely.
func (h *Handlers) HandleOrderReceived(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyIDFromContext(r.Context())
	if companyID == "" {
		writeMessage(w, http.StatusUnauthorized, "Invalid webhook credentials")
		return
	}

	req, ok := readJSON[order.CreateRequest](w, r)
	if !ok {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.Webhooks.ProcessOrderReceived(r.Context(), companyID, req)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	msg := "Order received and tracking activated"
	if !result.Created {
		msg = "Order already exists"
	}
	writeJSON(w, http.StatusOK, webhookAckResponse{
		Success:        true,
		OrderID:        result.OrderID,
		TrackingStatus: string(result.Status),
		Message:        msg,
	})
}

// HandleStatusUpdate processes the status-update webhook.
func (h *Handlers) HandleStatusUpdate(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyIDFromContext(r.Context())
	if companyID == "" {
		writeMessage(w, http.StatusUnauthorized, "Invalid webhook credentials")
		return
	}

	req, ok := readJSON[order.UpdateStatusRequest](w, r)
	if !ok {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.Webhooks.ProcessStatusUpdate(r.Context(), companyID, req)
	if err != nil {
		// An update for an order this company never registered is a sender
		// error, reported as a conflict.
		if errors.Is(err, domain.ErrConflict) {
			writeMessage(w, http.StatusConflict, strings.TrimSuffix(err.Error(), ": "+domain.ErrConflict.Error()))
			return
		}
		writeInternalError(w, err)
		return
	}

	if !result.Changed {
		writeJSON(w, http.StatusOK, webhookAckResponse{
			Success:       true,
			CurrentStatus: string(result.NewStatus),
			Message:       "Status unchanged",
		})
		return
	}

	writeJSON(w, http.StatusOK, webhookAckResponse{
		Success:        true,
		OrderID:        result.OrderID,
		PreviousStatus: string(result.PreviousStatus),
		NewStatus:      string(result.NewStatus),
		Message:        "Status updated successfully",
	})
}

// ---------------------------------------------------------------------------
// Order query handlers
// ---------------------------------------------------------------------------

// ListOrders returns one page of the authenticated company's orders.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyIDFromContext(r.Context())
	if companyID == "" {
		writeMessage(w, http.StatusUnauthorized, "Invalid webhook credentials")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.Orders.List(r.Context(), companyID, page, limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetOrder returns one order with its history and notification log.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyIDFromContext(r.Context())
	if companyID == "" {
		writeMessage(w, http.StatusUnauthorized, "Invalid webhook credentials")
		return
	}

	detail, err := h.Orders.Get(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// OrderStats returns the company's order counts by status.
func (h *Handlers) OrderStats(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyIDFromContext(r.Context())
	if companyID == "" {
		writeMessage(w, http.StatusUnauthorized, "Invalid webhook credentials")
		return
	}

	stats, err := h.Orders.Stats(r.Context(), companyID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// TrackOrder is the public customer tracking endpoint. It requires both the
// customer email and the merchant's order id and never reveals whether the
// email or the order id was the part that failed to match.
func (h *Handlers) TrackOrder(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	externalOrderID := r.URL.Query().Get("orderId")
	if email == "" || externalOrderID == "" {
		writeError(w, http.StatusBadRequest, "email and orderId are required")
		return
	}

	view, err := h.Orders.TrackByEmail(r.Context(), email, externalOrderID)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{"status": status})
}
