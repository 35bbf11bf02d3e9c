package service

import (
	"context"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/logger"
	"iznajmi-backend/internal/repository"
)

// AgreeToBooking registers the actor's agreement on a confirmed booking and promotes it to agreed
// once both parties are in.
//
// The flag write is a versioned update, so two parties agreeing at the same instant cannot both
// commit against the same snapshot: the loser is retried and sees the winner's flag. The final
// promotion is a status compare-and-swap, and only the call that wins it announces the agreement.
func (s *bookingService) AgreeToBooking(ctx context.Context, actorID, bookingID int32) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.AgreeToBooking", "actorID", actorID, "bookingID", bookingID)

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := s.loadForParticipant(ctx, tx, actorID, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusConfirmed {
			return domain.InvalidTransitionf("booking %d is %s, agreement is only possible while confirmed", b.ID, b.Status)
		}
		exchanged, err := hasExchangedMessages(ctx, tx.Messages(), b.ID)
		if err != nil {
			return err
		}
		if !exchanged {
			return domain.ErrNoMessagesExchanged
		}

		now := s.clock.Now()
		changed, err := b.MarkAgreed(b.PartyOf(actorID), now)
		if err != nil {
			return err
		}
		if !changed {
			// Already agreed and still waiting on the other side.
			booking = b
			return nil
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}

		current, err := tx.Bookings().GetByID(ctx, b.ID)
		if err != nil {
			return err
		}
		if !current.BothAgreed() {
			booking = current
			return s.notify.agreementRequested(ctx, tx, now, current, actorID)
		}

		promoted, err := tx.Bookings().PromoteToAgreed(ctx, current.ID, now)
		if err != nil {
			return err
		}
		if !promoted {
			booking, err = tx.Bookings().GetByID(ctx, b.ID)
			return err
		}
		booking, err = tx.Bookings().GetByID(ctx, b.ID)
		if err != nil {
			return err
		}
		return s.notify.bookingAgreed(ctx, tx, now, booking, actorID)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.AgreeToBooking", err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod("bookingService.AgreeToBooking", "bookingID", bookingID, "status", booking.Status,
		"renterAgreed", booking.RenterAgreed, "ownerAgreed", booking.OwnerAgreed)
	return booking, nil
}
