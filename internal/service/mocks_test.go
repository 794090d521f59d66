package service

import (
	"context"
	"sync"
	"time"

	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/company"
	"github.com/orderfellow/orderfellow/internal/domain/notification"
	"github.com/orderfellow/orderfellow/internal/domain/order"
	"github.com/orderfellow/orderfellow/internal/port/mail"
)

// mockStore implements database.Store with overridable function fields.
// Methods without an override return domain.ErrNotFound.
type mockStore struct {
	mu sync.Mutex

	createOrderFn       func(ctx context.Context, o *order.Order, note string) (*order.Order, bool, error)
	updateOrderStatusFn func(ctx context.Context, companyID, externalOrderID string, newStatus order.Status, note string) (*order.Order, order.Status, bool, error)
	getOrderFn          func(ctx context.Context, id string) (*order.Order, error)
	getCompanyOrderFn   func(ctx context.Context, companyID, id string) (*order.Order, error)
	listOrdersFn        func(ctx context.Context, companyID string, page, limit int) (*order.Page, error)
	listHistoryFn       func(ctx context.Context, orderID string) ([]order.HistoryEntry, error)
	findByCustomerFn    func(ctx context.Context, email, externalOrderID string) (*order.Order, error)
	orderStatsFn        func(ctx context.Context, companyID string) (*order.Stats, error)
	getCompanyFn        func(ctx context.Context, id string) (*company.Company, error)
	listRetryableFn     func(ctx context.Context, since time.Time) ([]notification.Notification, error)

	notifications []notification.Notification
	outcomes      map[string]notification.Outcome
}

func newMockStore() *mockStore {
	return &mockStore{outcomes: make(map[string]notification.Outcome)}
}

func (m *mockStore) GetCompanyBySecret(context.Context, string) (*company.Company, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetCompanyByEmail(context.Context, string) (*company.Company, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetCompany(ctx context.Context, id string) (*company.Company, error) {
	if m.getCompanyFn != nil {
		return m.getCompanyFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateCompany(context.Context, company.CreateRequest) (*company.Company, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListCompanies(context.Context) ([]company.Company, error) {
	return nil, nil
}

func (m *mockStore) ApproveCompany(context.Context, string, string) error {
	return nil
}

func (m *mockStore) CreateOrder(ctx context.Context, o *order.Order, note string) (*order.Order, bool, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, o, note)
	}
	return nil, false, domain.ErrNotFound
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, companyID, externalOrderID string, newStatus order.Status, note string) (*order.Order, order.Status, bool, error) {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, companyID, externalOrderID, newStatus, note)
	}
	return nil, "", false, domain.ErrNotFound
}

func (m *mockStore) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetCompanyOrder(ctx context.Context, companyID, id string) (*order.Order, error) {
	if m.getCompanyOrderFn != nil {
		return m.getCompanyOrderFn(ctx, companyID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListOrders(ctx context.Context, companyID string, page, limit int) (*order.Page, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, companyID, page, limit)
	}
	return &order.Page{Page: page, Limit: limit}, nil
}

func (m *mockStore) ListOrderHistory(ctx context.Context, orderID string) ([]order.HistoryEntry, error) {
	if m.listHistoryFn != nil {
		return m.listHistoryFn(ctx, orderID)
	}
	return nil, nil
}

func (m *mockStore) FindOrderByCustomer(ctx context.Context, email, externalOrderID string) (*order.Order, error) {
	if m.findByCustomerFn != nil {
		return m.findByCustomerFn(ctx, email, externalOrderID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) OrderStats(ctx context.Context, companyID string) (*order.Stats, error) {
	if m.orderStatsFn != nil {
		return m.orderStatsFn(ctx, companyID)
	}
	return &order.Stats{ByStatus: map[order.Status]order.StatusCount{}}, nil
}

func (m *mockStore) CreateNotification(_ context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *mockStore) UpdateNotificationOutcome(_ context.Context, id string, out notification.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[id] = out
	return nil
}

func (m *mockStore) ListRetryableNotifications(ctx context.Context, since time.Time) ([]notification.Notification, error) {
	if m.listRetryableFn != nil {
		return m.listRetryableFn(ctx, since)
	}
	return nil, nil
}

func (m *mockStore) ListOrderNotifications(context.Context, string) ([]notification.Notification, error) {
	return nil, nil
}

func (m *mockStore) savedNotifications() []notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notification.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// mockTransport records sends and optionally fails them.
type mockTransport struct {
	mu    sync.Mutex
	sends []sentMail
	err   error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockTransport) Send(_ context.Context, to, subject, html string) (mail.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sentMail{to: to, subject: subject, body: html})
	if m.err != nil {
		return mail.Result{}, m.err
	}
	return mail.Result{MessageID: "msg-1"}, nil
}

func (m *mockTransport) sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.sends))
	copy(out, m.sends)
	return out
}

// mockNotifier records enqueue calls.
type mockNotifier struct {
	mu           sync.Mutex
	activated    []string
	statusOrders []string
}

func (m *mockNotifier) EnqueueTrackingActivated(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activated = append(m.activated, orderID)
}

func (m *mockNotifier) EnqueueStatusUpdate(orderID string, _ order.Status, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusOrders = append(m.statusOrders, orderID)
}
