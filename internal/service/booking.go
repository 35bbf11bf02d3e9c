package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/logger"
	"iznajmi-backend/internal/repository"
	"iznajmi-backend/internal/utils"
)

type bookingService struct {
	store  repository.Store
	clock  utils.Clock
	notify notifier
}

func NewBookingService(store repository.Store, clock utils.Clock) BookingService {
	return &bookingService{
		store: store,
		clock: clock,
	}
}

// CreateBooking files a pending request. Requests never block each other and are not checked
// against the calendar here: many renters may ask for the same days and the first approval wins.
func (s *bookingService) CreateBooking(ctx context.Context, renterID, itemID int32, startDate, endDate string, method domain.DeliveryMethod) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "renterID", renterID, "itemID", itemID, "start", startDate, "end", endDate)

	dates, err := domain.ParseDateRange(startDate, endDate)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "reason", "bad dates")
		return nil, err
	}
	now := s.clock.Now()
	if dates.Start.Before(domain.Truncate(now)) {
		err := domain.Validationf("start date %s is in the past", startDate)
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "reason", "start in past")
		return nil, err
	}

	var booking *domain.Booking
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		item, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.IsDeleted() {
			return domain.NotFoundf("item %d not found", itemID)
		}
		if item.OwnerID == renterID {
			return domain.Validationf("you cannot book your own item")
		}
		if !item.AllowsDelivery(method) {
			return domain.Validationf("delivery method %q is not offered for this item", method)
		}

		quote, err := utils.QuoteRental(dates, item.PricePerDayCents)
		if err != nil {
			return domain.Validationf("%v", err)
		}

		booking = &domain.Booking{
			ItemID:           itemID,
			RenterID:         renterID,
			OwnerID:          item.OwnerID,
			StartDate:        startDate,
			EndDate:          endDate,
			TotalDays:        quote.TotalDays,
			PricePerDayCents: quote.PricePerDayCents,
			TotalPriceCents:  quote.TotalPriceCents,
			DeliveryMethod:   method,
			Status:           domain.BookingStatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return err
		}
		return s.notify.bookingPending(ctx, tx, now, booking, item.Title)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "renterID", renterID, "itemID", itemID)
		return nil, err
	}

	logger.ExitMethod("bookingService.CreateBooking", "bookingID", booking.ID, "totalPriceCents", booking.TotalPriceCents)
	return booking, nil
}

// checkAvailability fails with a conflict when an active booking other than excludeID occupies
// any day of dates.
func checkAvailability(ctx context.Context, tx repository.Tx, itemID int32, dates domain.DateRange, excludeID int32) error {
	active, err := tx.Bookings().ListActiveByItem(ctx, itemID)
	if err != nil {
		return err
	}
	ledger, err := domain.NewLedger(active)
	if err != nil {
		return err
	}
	if ids := ledger.Conflicts(dates, excludeID); len(ids) > 0 {
		return domain.Conflictf("item %d is already booked between %s and %s (booking %d)",
			itemID, dates.Start.Format(domain.DateLayout), dates.End.Format(domain.DateLayout), ids[0])
	}
	return nil
}

func (s *bookingService) ApproveBooking(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.ApproveBooking", "ownerID", ownerID, "bookingID", bookingID)

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := s.loadForOwner(ctx, tx, ownerID, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusPending {
			return domain.InvalidTransitionf("booking %d is %s, only pending bookings can be approved", b.ID, b.Status)
		}

		// Approvals on the same item queue up behind this lock, so the recheck below sees
		// every booking confirmed before us.
		if _, err := tx.Items().GetForUpdate(ctx, b.ItemID); err != nil {
			return err
		}
		dates, err := b.Range()
		if err != nil {
			return err
		}
		if err := checkAvailability(ctx, tx, b.ItemID, dates, b.ID); err != nil {
			return err
		}

		now := s.clock.Now()
		if err := b.Transition(domain.BookingStatusConfirmed, now); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return s.notify.bookingApproved(ctx, tx, now, b)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ApproveBooking", err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod("bookingService.ApproveBooking", "bookingID", bookingID)
	return booking, nil
}

func (s *bookingService) RejectBooking(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error) {
	return s.ownerTransition(ctx, "RejectBooking", ownerID, bookingID,
		domain.BookingStatusPending, domain.BookingStatusCancelled, s.notify.bookingRejected)
}

func (s *bookingService) MarkAsReady(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error) {
	return s.ownerTransition(ctx, "MarkAsReady", ownerID, bookingID,
		domain.BookingStatusAgreed, domain.BookingStatusNotDelivered, s.notify.itemReady)
}

func (s *bookingService) MarkAsDelivered(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error) {
	return s.ownerTransition(ctx, "MarkAsDelivered", ownerID, bookingID,
		domain.BookingStatusNotDelivered, domain.BookingStatusDelivered, s.notify.itemDelivered)
}

func (s *bookingService) MarkAsReturned(ctx context.Context, ownerID, bookingID int32) (*domain.Booking, error) {
	return s.ownerTransition(ctx, "MarkAsReturned", ownerID, bookingID,
		domain.BookingStatusDelivered, domain.BookingStatusReturned, s.notify.itemReturned)
}

type renterNotification func(ctx context.Context, tx repository.Tx, at time.Time, b *domain.Booking) error

// ownerTransition covers the owner-only single-edge moves that tell the renter about them.
func (s *bookingService) ownerTransition(ctx context.Context, op string, ownerID, bookingID int32,
	from, to domain.BookingStatus, notify renterNotification) (*domain.Booking, error) {
	method := "bookingService." + op
	logger.EnterMethod(method, "ownerID", ownerID, "bookingID", bookingID, "to", to)

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := s.loadForOwner(ctx, tx, ownerID, bookingID)
		if err != nil {
			return err
		}
		if b.Status != from {
			return domain.InvalidTransitionf("booking %d is %s, expected %s", b.ID, b.Status, from)
		}

		now := s.clock.Now()
		if err := b.Transition(to, now); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return notify(ctx, tx, now, b)
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod(method, "bookingID", bookingID, "status", booking.Status)
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, actorID, bookingID int32) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CancelBooking", "actorID", actorID, "bookingID", bookingID)

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := s.loadForParticipant(ctx, tx, actorID, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusPending && b.Status != domain.BookingStatusConfirmed {
			return domain.InvalidTransitionf("booking %d is %s and can no longer be cancelled", b.ID, b.Status)
		}

		now := s.clock.Now()
		if err := b.Transition(domain.BookingStatusCancelled, now); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return s.notify.bookingCancelled(ctx, tx, now, b, actorID)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CancelBooking", err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod("bookingService.CancelBooking", "bookingID", bookingID)
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID, bookingID int32) (*domain.Booking, error) {
	b, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PartyOf(userID) == domain.PartyNone {
		return nil, domain.Unauthorizedf("user %d is not a party to booking %d", userID, bookingID)
	}
	return b, nil
}

func (s *bookingService) ListRentals(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	page, pageSize, err := normalizeListArgs(status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return s.store.Bookings().ListByRenter(ctx, renterID, status, page, pageSize)
}

func (s *bookingService) ListLendings(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	page, pageSize, err := normalizeListArgs(status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return s.store.Bookings().ListByOwner(ctx, ownerID, status, page, pageSize)
}

func (s *bookingService) GetItemBookedDates(ctx context.Context, itemID int32) ([]domain.DateRange, error) {
	if _, err := s.store.Items().GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	active, err := s.store.Bookings().ListActiveByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	ledger, err := domain.NewLedger(active)
	if err != nil {
		return nil, fmt.Errorf("failed to build availability for item %d: %w", itemID, err)
	}
	return ledger.Ranges(), nil
}

func (s *bookingService) loadForOwner(ctx context.Context, tx repository.Tx, ownerID, bookingID int32) (*domain.Booking, error) {
	b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID {
		return nil, domain.Unauthorizedf("only the owner can do this on booking %d", bookingID)
	}
	return b, nil
}

func (s *bookingService) loadForParticipant(ctx context.Context, tx repository.Tx, userID, bookingID int32) (*domain.Booking, error) {
	b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PartyOf(userID) == domain.PartyNone {
		return nil, domain.Unauthorizedf("user %d is not a party to booking %d", userID, bookingID)
	}
	return b, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizeListArgs(status string, page, pageSize int32) (int32, int32, error) {
	if status != "" {
		if _, err := domain.ParseBookingStatus(status); err != nil {
			return 0, 0, err
		}
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if int64(page-1)*int64(pageSize) > math.MaxInt32 {
		return 0, 0, domain.Validationf("page %d is out of range for page size %d", page, pageSize)
	}
	return page, pageSize, nil
}
