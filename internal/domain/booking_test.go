package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusAgreed,
	BookingStatusNotDelivered,
	BookingStatusDelivered,
	BookingStatusReturned,
	BookingStatusCancelled,
}

func TestBookingStatus_Transitions(t *testing.T) {
	allowed := map[[2]BookingStatus]bool{
		{BookingStatusPending, BookingStatusConfirmed}:      true,
		{BookingStatusPending, BookingStatusCancelled}:      true,
		{BookingStatusConfirmed, BookingStatusAgreed}:       true,
		{BookingStatusConfirmed, BookingStatusCancelled}:    true,
		{BookingStatusAgreed, BookingStatusNotDelivered}:    true,
		{BookingStatusNotDelivered, BookingStatusDelivered}: true,
		{BookingStatusDelivered, BookingStatusReturned}:     true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]BookingStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestBookingStatus_Sets(t *testing.T) {
	assert.True(t, BookingStatusConfirmed.IsActive())
	assert.True(t, BookingStatusDelivered.IsActive())
	assert.False(t, BookingStatusPending.IsActive())
	assert.False(t, BookingStatusReturned.IsActive())
	assert.False(t, BookingStatusCancelled.IsActive())

	assert.True(t, BookingStatusReturned.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.False(t, BookingStatusAgreed.IsTerminal())

	assert.True(t, MessagingAllowed(BookingStatusAgreed))
	assert.False(t, MessagingAllowed(BookingStatusPending))

	_, err := ParseBookingStatus("returned")
	assert.Equal(t, KindValidation, KindOf(err))
	st, err := ParseBookingStatus("nije_isporucen")
	require.NoError(t, err)
	assert.Equal(t, BookingStatusNotDelivered, st)
}

func TestBooking_Transition(t *testing.T) {
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	t.Run("Stamps once-only timestamps", func(t *testing.T) {
		b := &Booking{ID: 1, Status: BookingStatusConfirmed}
		require.NoError(t, b.Transition(BookingStatusAgreed, now))
		require.NoError(t, b.Transition(BookingStatusNotDelivered, now.Add(time.Hour)))
		require.NoError(t, b.Transition(BookingStatusDelivered, now.Add(2*time.Hour)))
		require.NoError(t, b.Transition(BookingStatusReturned, now.Add(3*time.Hour)))

		assert.Equal(t, BookingStatusReturned, b.Status)
		assert.Equal(t, now, *b.AgreedAt)
		assert.Equal(t, now.Add(2*time.Hour), *b.DeliveredAt)
		assert.Equal(t, now.Add(3*time.Hour), *b.ReturnedAt)
		assert.Equal(t, now.Add(3*time.Hour), b.UpdatedAt)
	})

	t.Run("Rejects illegal edge without mutating", func(t *testing.T) {
		b := &Booking{ID: 2, Status: BookingStatusAgreed}
		err := b.Transition(BookingStatusCancelled, now)
		assert.Equal(t, KindInvalidStateTransition, KindOf(err))
		assert.Equal(t, BookingStatusAgreed, b.Status)
		assert.True(t, b.UpdatedAt.IsZero())
	})

	t.Run("Terminal states accept nothing", func(t *testing.T) {
		for _, from := range []BookingStatus{BookingStatusReturned, BookingStatusCancelled} {
			for _, to := range allStatuses {
				b := &Booking{Status: from}
				assert.Error(t, b.Transition(to, now))
			}
		}
	})
}

func TestBooking_MarkAgreed(t *testing.T) {
	now := time.Now()
	b := &Booking{ID: 7, RenterID: 1, OwnerID: 2, Status: BookingStatusConfirmed}

	changed, err := b.MarkAgreed(b.PartyOf(1), now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, b.RenterAgreed)
	assert.False(t, b.BothAgreed())

	changed, err = b.MarkAgreed(PartyRenter, now)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = b.MarkAgreed(b.PartyOf(99), now)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	changed, err = b.MarkAgreed(PartyOwner, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, b.BothAgreed())

	pending := &Booking{Status: BookingStatusPending}
	_, err = pending.MarkAgreed(PartyRenter, now)
	assert.Equal(t, KindInvalidStateTransition, KindOf(err))
	assert.False(t, pending.RenterAgreed)
}

func TestBooking_Parties(t *testing.T) {
	b := &Booking{RenterID: 1, OwnerID: 2}
	assert.Equal(t, PartyRenter, b.PartyOf(1))
	assert.Equal(t, PartyOwner, b.PartyOf(2))
	assert.Equal(t, PartyNone, b.PartyOf(3))
	assert.Equal(t, int32(2), b.Counterparty(1))
	assert.Equal(t, int32(1), b.Counterparty(2))
	assert.Equal(t, int32(0), b.Counterparty(3))
}
