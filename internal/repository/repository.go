package repository

import (
	"context"
	"time"

	"iznajmi-backend/internal/domain"

	"github.com/cockroachdb/errors"
)

// ErrStaleVersion is returned by BookingRepository.Update when the row changed since it was read.
// Store implementations retry the whole unit of work when they see it.
var ErrStaleVersion = errors.New("booking was modified concurrently")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id int32) (*domain.Item, error)
	// GetForUpdate locks the item row until the transaction ends. Approvals for the same item
	// serialize on it.
	GetForUpdate(ctx context.Context, id int32) (*domain.Item, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int32) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id int32) (*domain.Booking, error)
	// Update writes status, flags and timestamps when the stored version still equals
	// booking.Version, then bumps booking.Version.
	Update(ctx context.Context, booking *domain.Booking) error
	// PromoteToAgreed moves a confirmed booking with both flags set to agreed. It reports
	// whether this call performed the transition.
	PromoteToAgreed(ctx context.Context, id int32, at time.Time) (bool, error)
	ListActiveByItem(ctx context.Context, itemID int32) ([]domain.Booking, error)
	ListByRenter(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListByOwner(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	// ListDueForReturn returns delivered bookings whose last day is endDate.
	ListDueForReturn(ctx context.Context, endDate string) ([]domain.Booking, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	CountByBooking(ctx context.Context, bookingID int32) (int32, error)
	ListByBooking(ctx context.Context, bookingID int32, limit, offset int32) ([]domain.Message, int32, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error

	// Outbox side
	ClaimPendingDeliveries(ctx context.Context, now time.Time, limit int32, lease time.Duration) ([]domain.Notification, error)
	MarkDelivered(ctx context.Context, id int32, at time.Time) error
	MarkDeliveryFailed(ctx context.Context, id int32, attempts int32, nextAttemptAt time.Time, lastError string, dead bool) error
}

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Users() UserRepository
	Items() ItemRepository
	Bookings() BookingRepository
	Messages() MessageRepository
	Notifications() NotificationRepository
}

// Store hands out repositories. The embedded Tx serves reads outside any unit of work.
type Store interface {
	Tx
	// WithinTx runs fn atomically. fn may be invoked more than once when the store retries a
	// serialization failure, so it must not have side effects outside tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
