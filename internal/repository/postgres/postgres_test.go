package postgres_test

import (
	"context"
	"testing"
	"time"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits on success", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM messages WHERE booking_id = \\$1").
			WithArgs(int32(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectCommit()

		var count int32
		err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			var err error
			count, err = tx.Messages().CountByBooking(ctx, 1)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int32(2), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls back business errors without retrying", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		calls := 0
		err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			calls++
			return domain.Conflictf("item 1 is already booked")
		})
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Retries serialization failures", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET status=\\$1").
			WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET status=\\$1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		calls := 0
		err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			calls++
			b := &domain.Booking{ID: 1, Status: domain.BookingStatusCancelled, Version: 1, UpdatedAt: time.Now()}
			return tx.Bookings().Update(ctx, b)
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Retries stale versions", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET status=\\$1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET status=\\$1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			b := &domain.Booking{ID: 1, Status: domain.BookingStatusConfirmed, Version: 1, UpdatedAt: time.Now()}
			return tx.Bookings().Update(ctx, b)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Does not retry other driver errors", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET status=\\$1").
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			b := &domain.Booking{ID: 1, Status: domain.BookingStatusConfirmed, Version: 1, UpdatedAt: time.Now()}
			return tx.Bookings().Update(ctx, b)
		})
		var pqErr *pq.Error
		require.True(t, errors.As(err, &pqErr))
		assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestItemRepository_GetForUpdate(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM items WHERE id = \\$1 FOR UPDATE").
		WithArgs(int32(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "price_per_day_cents", "delivery_methods", "created_on", "deleted_on"}).
			AddRow(5, 9, "Drill", 700, "{pickup,delivery}", created, nil))

	item, err := store.Items().GetForUpdate(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int32(9), item.OwnerID)
	assert.Equal(t, []domain.DeliveryMethod{domain.DeliveryMethodPickup, domain.DeliveryMethodDelivery}, item.DeliveryMethods)
	assert.False(t, item.IsDeleted())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, name, email, push_token FROM users WHERE id = \\$1").
		WithArgs(int32(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "push_token"}))

	u, err := store.Users().GetByID(context.Background(), 2)
	assert.Nil(t, u)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Create", func(t *testing.T) {
		msg := &domain.Message{BookingID: 1, SenderID: 3, Body: "Can I pick it up at 9?", CreatedAt: now}
		mock.ExpectQuery("INSERT INTO messages").
			WithArgs(int32(1), int32(3), msg.Body, now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

		require.NoError(t, store.Messages().Create(ctx, msg))
		assert.Equal(t, int32(12), msg.ID)
	})

	t.Run("ListByBooking", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM messages").
			WithArgs(int32(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT id, booking_id, sender_id, body, created_at FROM messages").
			WithArgs(int32(1), int32(50), int32(0)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "sender_id", "body", "created_at"}).
				AddRow(12, 1, 3, "Can I pick it up at 9?", now))

		msgs, total, err := store.Messages().ListByBooking(ctx, 1, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		require.Len(t, msgs, 1)
		assert.Equal(t, int32(3), msgs[0].SenderID)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
