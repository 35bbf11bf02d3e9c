package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/logger"
)

type notificationRepository struct {
	db querier
}

const notificationColumns = `id, user_id, type, title, message, link, is_read, attributes, created_on, updated_on,
	delivery_status, delivery_attempts, next_attempt_at, last_error, delivered_at`

func scanNotification(row rowScanner) (*domain.Notification, error) {
	n := &domain.Notification{}
	var attrs []byte
	var deliveredAt sql.NullTime
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.IsRead, &attrs, &n.CreatedOn,
		&n.UpdatedOn, &n.DeliveryStatus, &n.DeliveryAttempts, &n.NextAttemptAt, &n.LastError, &deliveredAt)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
			return nil, err
		}
	}
	n.DeliveredAt = nullTime(deliveredAt)
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userID", n.UserID, "type", n.Type)

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal attributes")
		return err
	}

	if n.DeliveryStatus == "" {
		n.DeliveryStatus = domain.DeliveryPending
	}
	if n.NextAttemptAt.IsZero() {
		n.NextAttemptAt = n.CreatedOn
	}

	query := `INSERT INTO notifications (user_id, type, title, message, link, is_read, attributes, created_on, updated_on,
	          delivery_status, delivery_attempts, next_attempt_at, last_error)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID, "type", n.Type)

	err = r.db.QueryRowContext(ctx, query, n.UserID, n.Type, n.Title, n.Message, n.Link, n.IsRead, attrs, n.CreatedOn,
		n.UpdatedOn, n.DeliveryStatus, n.DeliveryAttempts, n.NextAttemptAt, n.LastError).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "userID", n.UserID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1
	          ORDER BY created_on DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notes = append(notes, *n)
	}
	return notes, count, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int32) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NotFoundf("notification %d not found", id)
	}
	return nil
}

// ClaimPendingDeliveries leases up to limit due rows to the caller. A processing row whose lease
// ran out is claimable again, so a crashed dispatcher only delays delivery.
func (r *notificationRepository) ClaimPendingDeliveries(ctx context.Context, now time.Time, limit int32, lease time.Duration) ([]domain.Notification, error) {
	query := `UPDATE notifications SET delivery_status = $1, next_attempt_at = $2, updated_on = $3
	          WHERE id IN (
	              SELECT id FROM notifications
	              WHERE delivery_status IN ($4, $5, $1) AND next_attempt_at <= $3
	              ORDER BY next_attempt_at, id
	              LIMIT $6
	              FOR UPDATE SKIP LOCKED
	          )
	          RETURNING ` + notificationColumns
	logger.DatabaseCall("UPDATE", "notifications", "operation", "claim", "limit", limit)
	rows, err := r.db.QueryContext(ctx, query, domain.DeliveryProcessing, now.Add(lease), now,
		domain.DeliveryPending, domain.DeliveryFailed, limit)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, err
	}
	defer rows.Close()

	var claimed []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, *n)
	}
	logger.DatabaseResult("UPDATE", int64(len(claimed)), rows.Err())
	return claimed, rows.Err()
}

func (r *notificationRepository) MarkDelivered(ctx context.Context, id int32, at time.Time) error {
	query := `UPDATE notifications SET delivery_status = $1, delivered_at = $2, updated_on = $2, last_error = ''
	          WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, domain.DeliveryDelivered, at, id)
	return err
}

func (r *notificationRepository) MarkDeliveryFailed(ctx context.Context, id int32, attempts int32, nextAttemptAt time.Time, lastError string, dead bool) error {
	status := domain.DeliveryFailed
	if dead {
		status = domain.DeliveryDead
	}
	query := `UPDATE notifications SET delivery_status = $1, delivery_attempts = $2, next_attempt_at = $3, last_error = $4
	          WHERE id = $5`
	_, err := r.db.ExecContext(ctx, query, status, attempts, nextAttemptAt, lastError, id)
	return err
}
