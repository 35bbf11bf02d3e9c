package postgres_test

import (
	"context"
	"testing"
	"time"

	"iznajmi-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notificationCols = []string{"id", "user_id", "type", "title", "message", "link", "is_read", "attributes",
	"created_on", "updated_on", "delivery_status", "delivery_attempts", "next_attempt_at", "last_error", "delivered_at"}

func TestNotificationRepository_Create(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	n := &domain.Notification{
		UserID:     4,
		Type:       domain.NotificationBookingPending,
		Title:      "New booking request",
		Message:    "Ana wants to rent Drill from 2024-01-10 to 2024-01-14.",
		Link:       "/bookings/1",
		Attributes: map[string]string{"booking_id": "1"},
		CreatedOn:  now,
		UpdatedOn:  now,
	}

	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(int32(4), "booking_pending", n.Title, n.Message, n.Link, false, []byte(`{"booking_id":"1"}`),
			now, now, "pending", int32(0), now, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(30))

	err := store.Notifications().Create(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, int32(30), n.ID)
	assert.Equal(t, domain.DeliveryPending, n.DeliveryStatus)
	assert.Equal(t, now, n.NextAttemptAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_List(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM notifications WHERE user_id = \\$1").
		WithArgs(int32(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM notifications WHERE user_id = \\$1").
		WithArgs(int32(4), int32(20), int32(0)).
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow(30, 4, "booking_pending", "t", "m", "/bookings/1", false, []byte(`{"booking_id":"1"}`),
				now, now, "delivered", 1, now, "", now))

	notes, total, err := store.Notifications().List(context.Background(), 4, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	require.Len(t, notes, 1)
	assert.Equal(t, "1", notes[0].Attributes["booking_id"])
	assert.NotNil(t, notes[0].DeliveredAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE notifications SET is_read = TRUE").
			WithArgs(int32(30), int32(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, store.Notifications().MarkAsRead(ctx, 30, 4))
	})

	t.Run("Someone else's notification", func(t *testing.T) {
		mock.ExpectExec("UPDATE notifications SET is_read = TRUE").
			WithArgs(int32(30), int32(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		err := store.Notifications().MarkAsRead(ctx, 30, 5)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_Outbox(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Claim", func(t *testing.T) {
		mock.ExpectQuery("UPDATE notifications SET delivery_status = \\$1, next_attempt_at = \\$2, updated_on = \\$3 WHERE id IN \\( SELECT id FROM notifications (.+) FOR UPDATE SKIP LOCKED \\) RETURNING").
			WithArgs("processing", now.Add(time.Minute), now, "pending", "failed", int32(10)).
			WillReturnRows(sqlmock.NewRows(notificationCols).
				AddRow(30, 4, "booking_pending", "t", "m", "/bookings/1", false, []byte(`{}`),
					now, now, "processing", 0, now.Add(time.Minute), "", nil))

		claimed, err := store.Notifications().ClaimPendingDeliveries(ctx, now, 10, time.Minute)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, domain.DeliveryProcessing, claimed[0].DeliveryStatus)
	})

	t.Run("Delivered", func(t *testing.T) {
		mock.ExpectExec("UPDATE notifications SET delivery_status = \\$1, delivered_at = \\$2").
			WithArgs("delivered", now, int32(30)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, store.Notifications().MarkDelivered(ctx, 30, now))
	})

	t.Run("Failed then dead", func(t *testing.T) {
		next := now.Add(2 * time.Minute)
		mock.ExpectExec("UPDATE notifications SET delivery_status = \\$1, delivery_attempts = \\$2").
			WithArgs("failed", int32(1), next, "smtp down", int32(30)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE notifications SET delivery_status = \\$1, delivery_attempts = \\$2").
			WithArgs("dead", int32(5), next, "smtp down", int32(30)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Notifications().MarkDeliveryFailed(ctx, 30, 1, next, "smtp down", false))
		assert.NoError(t, store.Notifications().MarkDeliveryFailed(ctx, 30, 5, next, "smtp down", true))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
