package postgres

import (
	"context"

	"iznajmi-backend/internal/domain"
)

type messageRepository struct {
	db querier
}

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	query := `INSERT INTO messages (booking_id, sender_id, body, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	return r.db.QueryRowContext(ctx, query, m.BookingID, m.SenderID, m.Body, m.CreatedAt).Scan(&m.ID)
}

func (r *messageRepository) CountByBooking(ctx context.Context, bookingID int32) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM messages WHERE booking_id = $1`, bookingID).Scan(&count)
	return count, err
}

func (r *messageRepository) ListByBooking(ctx context.Context, bookingID int32, limit, offset int32) ([]domain.Message, int32, error) {
	count, err := r.CountByBooking(ctx, bookingID)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT id, booking_id, sender_id, body, created_at FROM messages
	          WHERE booking_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, bookingID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.BookingID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		msgs = append(msgs, m)
	}
	return msgs, count, rows.Err()
}
