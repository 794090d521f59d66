package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/order"
)

const orderColumns = `id, company_id, external_order_id, customer_email, COALESCE(customer_phone, ''), item_summary, delivery_address, current_status, created_at, updated_at`

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.CompanyID, &o.ExternalOrderID, &o.CustomerEmail, &o.CustomerPhone,
		&o.ItemSummary, &o.DeliveryAddress, &o.CurrentStatus, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanHistoryEntry(row pgx.Row) (*order.HistoryEntry, error) {
	var h order.HistoryEntry
	var note *string
	if err := row.Scan(&h.ID, &h.OrderID, &h.Status, &note, &h.Timestamp); err != nil {
		return nil, err
	}
	if note != nil {
		h.Note = *note
	}
	return &h, nil
}

// CreateOrder inserts o and its first history entry in one transaction.
// Duplicate creates, including concurrent ones racing on the same
// (company_id, external_order_id), resolve through ON CONFLICT DO NOTHING:
// the insert returns no row, the transaction is abandoned, and the winner's
// committed row is re-read and returned with created=false. No uniqueness
// violation ever surfaces to the caller.
func (s *Store) CreateOrder(ctx context.Context, o *order.Order, note string) (*order.Order, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("create order: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanOrder(tx.QueryRow(ctx,
		`INSERT INTO orders (id, company_id, external_order_id, customer_email, customer_phone, item_summary, delivery_address, current_status)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
		 ON CONFLICT (company_id, external_order_id) DO NOTHING
		 RETURNING `+orderColumns,
		o.ID, o.CompanyID, o.ExternalOrderID, o.CustomerEmail, o.CustomerPhone,
		o.ItemSummary, o.DeliveryAddress, o.CurrentStatus))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race or a plain redelivery: the conflicting insert has
			// committed by the time ON CONFLICT resolves, so the row is visible.
			existing, err := s.GetOrderByExternalID(ctx, o.CompanyID, o.ExternalOrderID)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO status_history (order_id, status, note) VALUES ($1, $2, $3)`,
		created.ID, created.CurrentStatus, note)
	if err != nil {
		return nil, false, fmt.Errorf("create order: first history entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("create order: commit: %w", err)
	}
	return created, true, nil
}

// UpdateOrderStatus transitions an order and appends the matching history
// entry in one transaction, locking the row so concurrent updates serialize.
// Returns the updated order, the previous status, and whether anything
// changed; a same-status update writes nothing.
func (s *Store) UpdateOrderStatus(ctx context.Context, companyID, externalOrderID string, newStatus order.Status, note string) (*order.Order, order.Status, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, "", false, fmt.Errorf("update status: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE company_id = $1 AND external_order_id = $2 FOR UPDATE`,
		companyID, externalOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", false, fmt.Errorf("order %s: %w", externalOrderID, domain.ErrNotFound)
		}
		return nil, "", false, fmt.Errorf("update status: %w", err)
	}

	previous := o.CurrentStatus
	if previous == newStatus {
		return o, previous, false, nil
	}

	updated, err := scanOrder(tx.QueryRow(ctx,
		`UPDATE orders SET current_status = $2, updated_at = now() WHERE id = $1
		 RETURNING `+orderColumns, o.ID, newStatus))
	if err != nil {
		return nil, "", false, fmt.Errorf("update status: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO status_history (order_id, status, note) VALUES ($1, $2, NULLIF($3, ''))`,
		o.ID, newStatus, note)
	if err != nil {
		return nil, "", false, fmt.Errorf("update status: history entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", false, fmt.Errorf("update status: commit: %w", err)
	}
	return updated, previous, true, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	return o, nil
}

// GetOrderByExternalID looks an order up by its per-company unique key.
func (s *Store) GetOrderByExternalID(ctx context.Context, companyID, externalOrderID string) (*order.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE company_id = $1 AND external_order_id = $2`,
		companyID, externalOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", externalOrderID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("order %s: %w", externalOrderID, err)
	}
	return o, nil
}

// GetCompanyOrder fetches an order by id scoped to the owning company.
func (s *Store) GetCompanyOrder(ctx context.Context, companyID, id string) (*order.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	return o, nil
}

// ListOrders returns one page of a company's orders, newest first, each with
// its most recent history entry.
func (s *Store) ListOrders(ctx context.Context, companyID string, page, limit int) (*order.Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE company_id = $1`, companyID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	p := &order.Page{Page: page, Limit: limit, Total: total, Pages: (total + limit - 1) / limit}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		p.Orders = append(p.Orders, order.Summary{Order: *o})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range p.Orders {
		entry, err := scanHistoryEntry(s.pool.QueryRow(ctx,
			`SELECT id, order_id, status, note, ts FROM status_history
			 WHERE order_id = $1 ORDER BY ts DESC LIMIT 1`, p.Orders[i].ID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("latest history: %w", err)
		}
		p.Orders[i].LatestEntry = entry
	}
	return p, nil
}

// ListOrderHistory returns an order's full status timeline, newest first.
func (s *Store) ListOrderHistory(ctx context.Context, orderID string) ([]order.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, order_id, status, note, ts FROM status_history
		 WHERE order_id = $1 ORDER BY ts DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	defer rows.Close()

	var entries []order.HistoryEntry
	for rows.Next() {
		h, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, *h)
	}
	return entries, rows.Err()
}

// FindOrderByCustomer resolves the public tracking lookup: customer email
// plus the external order id they were given.
func (s *Store) FindOrderByCustomer(ctx context.Context, email, externalOrderID string) (*order.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE customer_email = $1 AND external_order_id = $2`, email, externalOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", externalOrderID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("order %s: %w", externalOrderID, err)
	}
	return o, nil
}

// OrderStats aggregates a company's orders by current status.
func (s *Store) OrderStats(ctx context.Context, companyID string) (*order.Stats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT current_status, count(*) FROM orders
		 WHERE company_id = $1 GROUP BY current_status`, companyID)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	stats := &order.Stats{ByStatus: make(map[order.Status]order.StatusCount)}
	for rows.Next() {
		var st order.Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.ByStatus[st] = order.StatusCount{Count: n}
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for st, sc := range stats.ByStatus {
		if stats.Total > 0 {
			sc.Percentage = float64(sc.Count) * 100 / float64(stats.Total)
		}
		stats.ByStatus[st] = sc
	}
	return stats, nil
}
