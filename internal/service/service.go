package service

import (
	"context"

	"iznajmi-backend/internal/domain"
)

// BookingService drives a booking through its lifecycle. Every method takes the acting user
// explicitly; none reads identity from ctx.
type BookingService interface {
	CreateBooking(ctx context.Context, renterID, itemID int32, startDate, endDate string, method domain.DeliveryMethod) (*domain.Booking, error)
	ApproveBooking(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error)
	RejectBooking(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error)
	CancelBooking(ctx context.Context, actorID, bookingID int32) (*domain.Booking, error)
	AgreeToBooking(ctx context.Context, actorID, bookingID int32) (*domain.Booking, error)
	MarkAsReady(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error)
	MarkAsDelivered(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error)
	MarkAsReturned(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error)

	GetBooking(ctx context.Context, userID, bookingID int32) (*domain.Booking, error)
	ListRentals(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListLendings(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	GetItemBookedDates(ctx context.Context, itemID int32) ([]domain.DateRange, error)
}

// MessageService is the gate between bookings and the chat thread attached to each of them.
type MessageService interface {
	CanMessage(ctx context.Context, userID, bookingID int32) (bool, error)
	PostMessage(ctx context.Context, senderID, bookingID int32, body string) (*domain.Message, error)
	ListMessages(ctx context.Context, userID, bookingID int32, page, pageSize int32) ([]domain.Message, int32, error)
	HasExchangedMessages(ctx context.Context, bookingID int32) (bool, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

type EmailService interface {
	SendReturnReminder(ctx context.Context, renterEmail, renterName, itemTitle, endDate string) error
	SendNotificationEmail(ctx context.Context, email, name, subject, message, link string) error
}

// PushService sends a mobile push notification to a single device token.
type PushService interface {
	SendPush(ctx context.Context, token, title, body string, data map[string]string) error
}
