package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/logger"
	"iznajmi-backend/internal/repository"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

type bookingRepository struct {
	db querier
}

const bookingColumns = `id, item_id, renter_id, owner_id, start_date, end_date, total_days, price_per_day_cents,
	total_price_cents, delivery_method, status, renter_agreed, owner_agreed, version, created_at, updated_at,
	agreed_at, delivered_at, returned_at`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var start, end time.Time
	var agreedAt, deliveredAt, returnedAt sql.NullTime
	err := row.Scan(&b.ID, &b.ItemID, &b.RenterID, &b.OwnerID, &start, &end, &b.TotalDays, &b.PricePerDayCents,
		&b.TotalPriceCents, &b.DeliveryMethod, &b.Status, &b.RenterAgreed, &b.OwnerAgreed, &b.Version,
		&b.CreatedAt, &b.UpdatedAt, &agreedAt, &deliveredAt, &returnedAt)
	if err != nil {
		return nil, err
	}
	b.StartDate = start.Format(domain.DateLayout)
	b.EndDate = end.Format(domain.DateLayout)
	b.AgreedAt = nullTime(agreedAt)
	b.DeliveredAt = nullTime(deliveredAt)
	b.ReturnedAt = nullTime(returnedAt)
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (item_id, renter_id, owner_id, start_date, end_date, total_days, price_per_day_cents,
	          total_price_cents, delivery_method, status, renter_agreed, owner_agreed, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING id`
	logger.DatabaseCall("INSERT", "bookings", "itemID", b.ItemID, "renterID", b.RenterID)
	err := r.db.QueryRowContext(ctx, query, b.ItemID, b.RenterID, b.OwnerID, b.StartDate, b.EndDate, b.TotalDays,
		b.PricePerDayCents, b.TotalPriceCents, b.DeliveryMethod, b.Status, b.RenterAgreed, b.OwnerAgreed, b.Version,
		b.CreatedAt, b.UpdatedAt).Scan(&b.ID)
	logger.DatabaseResult("INSERT", 1, err, "bookingID", b.ID)
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookingRepository) get(ctx context.Context, query string, id int32) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("booking %d not found", id)
	}
	return b, err
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `UPDATE bookings SET status=$1, renter_agreed=$2, owner_agreed=$3, agreed_at=$4, delivered_at=$5,
	          returned_at=$6, updated_at=$7, version=version+1
	          WHERE id=$8 AND version=$9`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", b.ID, "status", b.Status, "version", b.Version)
	res, err := r.db.ExecContext(ctx, query, b.Status, b.RenterAgreed, b.OwnerAgreed, b.AgreedAt, b.DeliveredAt,
		b.ReturnedAt, b.UpdatedAt, b.ID, b.Version)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "bookingID", b.ID)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil, "bookingID", b.ID)
	if n == 0 {
		return errors.Wrapf(repository.ErrStaleVersion, "booking %d at version %d", b.ID, b.Version)
	}
	b.Version++
	return nil
}

func (r *bookingRepository) PromoteToAgreed(ctx context.Context, id int32, at time.Time) (bool, error) {
	query := `UPDATE bookings SET status=$1, agreed_at=$2, updated_at=$2, version=version+1
	          WHERE id=$3 AND status=$4 AND renter_agreed AND owner_agreed`
	res, err := r.db.ExecContext(ctx, query, domain.BookingStatusAgreed, at, id, domain.BookingStatusConfirmed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func activeStatusArray() any {
	statuses := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		statuses[i] = string(s)
	}
	return pq.Array(statuses)
}

func (r *bookingRepository) ListActiveByItem(ctx context.Context, itemID int32) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE item_id = $1 AND status = ANY($2) ORDER BY start_date`
	rows, err := r.db.QueryContext(ctx, query, itemID, activeStatusArray())
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *bookingRepository) ListByRenter(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.listByParty(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *bookingRepository) ListByOwner(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.listByParty(ctx, "owner_id", ownerID, status, page, pageSize)
}

func (r *bookingRepository) listByParty(ctx context.Context, column string, userID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	offset := (page - 1) * pageSize
	where := ` FROM bookings WHERE ` + column + ` = $1`
	args := []any{userID}
	argIdx := 2
	if status != "" {
		where += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*)"+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + bookingColumns + where + fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, count, nil
}

func (r *bookingRepository) ListDueForReturn(ctx context.Context, endDate string) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 AND end_date = $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, domain.BookingStatusDelivered, endDate)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}
