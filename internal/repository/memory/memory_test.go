package memory

import (
	"context"
	"testing"
	"time"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/repository"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBooking(t *testing.T, s *Store, status domain.BookingStatus, start, end string) *domain.Booking {
	t.Helper()
	b := &domain.Booking{ItemID: 1, RenterID: 2, OwnerID: 3, StartDate: start, EndDate: end, Status: status}
	require.NoError(t, s.Bookings().Create(context.Background(), b))
	return b
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit publishes writes", func(t *testing.T) {
		s := NewStore()
		err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			return tx.Users().Create(ctx, &domain.User{Name: "Ana", Email: "ana@example.com"})
		})
		require.NoError(t, err)

		u, err := s.Users().GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Ana", u.Name)
	})

	t.Run("Error discards writes", func(t *testing.T) {
		s := NewStore()
		b := seedBooking(t, s, domain.BookingStatusPending, "2024-01-01", "2024-01-02")

		err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			got, err := tx.Bookings().GetForUpdate(ctx, b.ID)
			require.NoError(t, err)
			got.Status = domain.BookingStatusConfirmed
			require.NoError(t, tx.Bookings().Update(ctx, got))
			require.NoError(t, tx.Notifications().Create(ctx, &domain.Notification{UserID: 2}))
			return domain.Conflictf("boom")
		})
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))

		got, err := s.Bookings().GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusPending, got.Status)
		assert.Equal(t, int32(0), got.Version)

		_, total, err := s.Notifications().List(ctx, 2, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(0), total)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		s := NewStore()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := s.WithinTx(cctx, func(ctx context.Context, tx repository.Tx) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBookingRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Stale version", func(t *testing.T) {
		s := NewStore()
		b := seedBooking(t, s, domain.BookingStatusConfirmed, "2024-01-01", "2024-01-02")

		first := *b
		second := *b
		first.RenterAgreed = true
		require.NoError(t, s.Bookings().Update(ctx, &first))
		assert.Equal(t, int32(1), first.Version)

		second.OwnerAgreed = true
		err := s.Bookings().Update(ctx, &second)
		assert.True(t, errors.Is(err, repository.ErrStaleVersion))
	})

	t.Run("PromoteToAgreed fires once", func(t *testing.T) {
		s := NewStore()
		b := seedBooking(t, s, domain.BookingStatusConfirmed, "2024-01-01", "2024-01-02")
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		ok, err := s.Bookings().PromoteToAgreed(ctx, b.ID, now)
		require.NoError(t, err)
		assert.False(t, ok, "flags not set yet")

		b.RenterAgreed, b.OwnerAgreed = true, true
		require.NoError(t, s.Bookings().Update(ctx, b))

		ok, err = s.Bookings().PromoteToAgreed(ctx, b.ID, now)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.Bookings().PromoteToAgreed(ctx, b.ID, now)
		require.NoError(t, err)
		assert.False(t, ok)

		got, _ := s.Bookings().GetByID(ctx, b.ID)
		assert.Equal(t, domain.BookingStatusAgreed, got.Status)
		require.NotNil(t, got.AgreedAt)
	})

	t.Run("ListActiveByItem", func(t *testing.T) {
		s := NewStore()
		seedBooking(t, s, domain.BookingStatusAgreed, "2024-02-01", "2024-02-03")
		seedBooking(t, s, domain.BookingStatusPending, "2024-01-01", "2024-01-03")
		seedBooking(t, s, domain.BookingStatusConfirmed, "2024-01-10", "2024-01-12")
		seedBooking(t, s, domain.BookingStatusCancelled, "2024-01-05", "2024-01-06")
		seedBooking(t, s, domain.BookingStatusReturned, "2023-12-01", "2023-12-02")

		active, err := s.Bookings().ListActiveByItem(ctx, 1)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "2024-01-10", active[0].StartDate)
		assert.Equal(t, "2024-02-01", active[1].StartDate)
	})

	t.Run("ListByRenter pages newest first", func(t *testing.T) {
		s := NewStore()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			b := &domain.Booking{ItemID: 1, RenterID: 2, OwnerID: 3, Status: domain.BookingStatusPending, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
			require.NoError(t, s.Bookings().Create(ctx, b))
		}

		page, total, err := s.Bookings().ListByRenter(ctx, 2, "", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int32(5), total)
		require.Len(t, page, 2)
		assert.Equal(t, int32(5), page[0].ID)

		page, _, err = s.Bookings().ListByRenter(ctx, 2, "", 3, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, int32(1), page[0].ID)

		page, total, err = s.Bookings().ListByOwner(ctx, 3, "confirmed", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(0), total)
		assert.Empty(t, page)
	})
}

func TestNotificationOutbox(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Notifications().Create(ctx, &domain.Notification{UserID: 1, CreatedOn: now.Add(time.Duration(i) * time.Minute)}))
	}

	claimed, err := s.Notifications().ClaimPendingDeliveries(ctx, now.Add(time.Minute), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 2, "third row is not due yet")
	assert.Equal(t, int32(1), claimed[0].ID)

	again, err := s.Notifications().ClaimPendingDeliveries(ctx, now.Add(time.Minute), 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again, "leased rows are skipped")

	require.NoError(t, s.Notifications().MarkDelivered(ctx, 1, now))
	require.NoError(t, s.Notifications().MarkDeliveryFailed(ctx, 2, 1, now.Add(10*time.Minute), "timeout", false))

	later, err := s.Notifications().ClaimPendingDeliveries(ctx, now.Add(10*time.Minute), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, later, 2)
	assert.Equal(t, int32(3), later[0].ID)
	assert.Equal(t, int32(2), later[1].ID)

	require.NoError(t, s.Notifications().MarkAsRead(ctx, 1, 1))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(s.Notifications().MarkAsRead(ctx, 1, 99)))
}
