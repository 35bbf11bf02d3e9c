package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/repository"
)

// notifier turns lifecycle events into notification rows. Rows are written through the caller's
// transaction, so they commit or vanish together with the transition; delivery happens later
// from the outbox.
type notifier struct{}

func bookingLink(id int32) string {
	return fmt.Sprintf("/bookings/%d", id)
}

func (notifier) emit(ctx context.Context, tx repository.Tx, at time.Time, recipientID, actorID int32, b *domain.Booking,
	typ domain.NotificationType, title, message string) error {
	n := &domain.Notification{
		UserID:  recipientID,
		Type:    typ,
		Title:   title,
		Message: message,
		Link:    bookingLink(b.ID),
		Attributes: map[string]string{
			"booking_id": strconv.Itoa(int(b.ID)),
			"item_id":    strconv.Itoa(int(b.ItemID)),
			"actor_id":   strconv.Itoa(int(actorID)),
		},
		CreatedOn:      at,
		UpdatedOn:      at,
		DeliveryStatus: domain.DeliveryPending,
		NextAttemptAt:  at,
	}
	if err := tx.Notifications().Create(ctx, n); err != nil {
		return fmt.Errorf("failed to record %s notification: %w", typ, err)
	}
	return nil
}

// displayName falls back to a neutral label when the user row is gone.
func displayName(ctx context.Context, tx repository.Tx, userID int32) string {
	u, err := tx.Users().GetByID(ctx, userID)
	if err != nil || u.Name == "" {
		return fmt.Sprintf("User #%d", userID)
	}
	return u.Name
}

func itemTitle(ctx context.Context, tx repository.Tx, itemID int32) string {
	it, err := tx.Items().GetByID(ctx, itemID)
	if err != nil || it.Title == "" {
		return fmt.Sprintf("item #%d", itemID)
	}
	return it.Title
}

func (n notifier) bookingPending(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking, title string) error {
	renter := displayName(ctx, tx, b.RenterID)
	return n.emit(ctx, tx, at, b.OwnerID, b.RenterID, b, domain.NotificationBookingPending,
		"New booking request",
		fmt.Sprintf("%s wants to rent %s from %s to %s.", renter, title, b.StartDate, b.EndDate))
}

func (n notifier) bookingApproved(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking) error {
	title := itemTitle(ctx, tx, b.ItemID)
	return n.emit(ctx, tx, at, b.RenterID, b.OwnerID, b, domain.NotificationBookingApproved,
		"Booking approved",
		fmt.Sprintf("Your booking for %s was approved. Chat with the owner is now open to arrange the handover.", title))
}

func (n notifier) bookingRejected(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking) error {
	title := itemTitle(ctx, tx, b.ItemID)
	return n.emit(ctx, tx, at, b.RenterID, b.OwnerID, b, domain.NotificationBookingRejected,
		"Booking rejected",
		fmt.Sprintf("Your booking request for %s was rejected.", title))
}

func (n notifier) bookingCancelled(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking, actorID int32) error {
	actor := displayName(ctx, tx, actorID)
	title := itemTitle(ctx, tx, b.ItemID)
	return n.emit(ctx, tx, at, b.Counterparty(actorID), actorID, b, domain.NotificationBookingCancelled,
		"Booking cancelled",
		fmt.Sprintf("%s cancelled the booking for %s (%s to %s).", actor, title, b.StartDate, b.EndDate))
}

func (n notifier) agreementRequested(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking, actorID int32) error {
	actor := displayName(ctx, tx, actorID)
	return n.emit(ctx, tx, at, b.Counterparty(actorID), actorID, b, domain.NotificationAgreementRequested,
		"Agreement requested",
		fmt.Sprintf("%s agreed to the booking terms and is waiting for your confirmation.", actor))
}

func (n notifier) bookingAgreed(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking, actorID int32) error {
	title := itemTitle(ctx, tx, b.ItemID)
	msg := fmt.Sprintf("Both parties agreed. The booking for %s is confirmed for %s to %s.", title, b.StartDate, b.EndDate)
	for _, recipient := range []int32{b.RenterID, b.OwnerID} {
		if err := n.emit(ctx, tx, at, recipient, actorID, b, domain.NotificationBookingAgreed, "Agreement reached", msg); err != nil {
			return err
		}
	}
	return nil
}

func (n notifier) itemReady(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking) error {
	title := itemTitle(ctx, tx, b.ItemID)
	return n.emit(ctx, tx, at, b.RenterID, b.OwnerID, b, domain.NotificationItemReady,
		"Item ready",
		fmt.Sprintf("%s is ready for handover.", title))
}

func (n notifier) itemDelivered(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking) error {
	title := itemTitle(ctx, tx, b.ItemID)
	return n.emit(ctx, tx, at, b.RenterID, b.OwnerID, b, domain.NotificationItemDelivered,
		"Item delivered",
		fmt.Sprintf("%s was marked as delivered. Please return it by %s.", title, b.EndDate))
}

func (n notifier) itemReturned(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking) error {
	title := itemTitle(ctx, tx, b.ItemID)
	return n.emit(ctx, tx, at, b.RenterID, b.OwnerID, b, domain.NotificationItemReturned,
		"Item returned",
		fmt.Sprintf("The return of %s was confirmed. Thank you for renting!", title))
}
