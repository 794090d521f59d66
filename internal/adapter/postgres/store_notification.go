package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/notification"
)

const notificationColumns = `id, order_id, type, recipient, subject, body, status, sent_at, failed_at, COALESCE(error_msg, ''), created_at`

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	err := row.Scan(&n.ID, &n.OrderID, &n.Type, &n.Recipient, &n.Subject, &n.Body,
		&n.Status, &n.SentAt, &n.FailedAt, &n.ErrorMsg, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNotification persists the audit record of one dispatch attempt.
func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notifications (id, order_id, type, recipient, subject, body, status, sent_at, failed_at, error_msg)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		 RETURNING created_at`,
		n.ID, n.OrderID, n.Type, n.Recipient, n.Subject, n.Body,
		n.Status, n.SentAt, n.FailedAt, n.ErrorMsg).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// UpdateNotificationOutcome overwrites the outcome fields of an existing
// record in place. Retries mutate the original record; they never add rows.
func (s *Store) UpdateNotificationOutcome(ctx context.Context, id string, out notification.Outcome) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications
		 SET status = $2, sent_at = $3, failed_at = $4, error_msg = NULLIF($5, '')
		 WHERE id = $1`,
		id, out.Status, out.SentAt, out.FailedAt, out.ErrorMsg)
	if err != nil {
		return fmt.Errorf("update notification %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListRetryableNotifications returns FAILED records created at or after the
// cutoff. Older failures stay on record but are never auto-retried.
func (s *Store) ListRetryableNotifications(ctx context.Context, since time.Time) ([]notification.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE status = 'FAILED' AND created_at >= $1
		 ORDER BY created_at ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("list retryable notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// ListOrderNotifications returns an order's notification log, newest first.
func (s *Store) ListOrderNotifications(ctx context.Context, orderID string) ([]notification.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func collectNotifications(rows pgx.Rows) ([]notification.Notification, error) {
	var out []notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return out, nil
}
