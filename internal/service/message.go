package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/repository"
	"iznajmi-backend/internal/utils"
)

type messageService struct {
	store repository.Store
	clock utils.Clock
}

func NewMessageService(store repository.Store, clock utils.Clock) MessageService {
	return &messageService{store: store, clock: clock}
}

func hasExchangedMessages(ctx context.Context, repo repository.MessageRepository, bookingID int32) (bool, error) {
	n, err := repo.CountByBooking(ctx, bookingID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanMessage reports whether the chat thread of the booking is open for userID. Outsiders get an
// Unauthorized error rather than false.
func (s *messageService) CanMessage(ctx context.Context, userID, bookingID int32) (bool, error) {
	b, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if b.PartyOf(userID) == domain.PartyNone {
		return false, domain.Unauthorizedf("user %d is not a party to booking %d", userID, bookingID)
	}
	return domain.MessagingAllowed(b.Status), nil
}

func (s *messageService) PostMessage(ctx context.Context, senderID, bookingID int32, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.Validationf("message body is empty")
	}
	if utf8.RuneCountInString(body) > domain.MaxMessageLength {
		return nil, domain.Validationf("message is longer than %d characters", domain.MaxMessageLength)
	}

	var msg *domain.Message
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.PartyOf(senderID) == domain.PartyNone {
			return domain.Unauthorizedf("user %d is not a party to booking %d", senderID, bookingID)
		}
		if !domain.MessagingAllowed(b.Status) {
			return domain.InvalidTransitionf("chat is closed while booking %d is %s", b.ID, b.Status)
		}
		msg = &domain.Message{
			BookingID: bookingID,
			SenderID:  senderID,
			Body:      body,
			CreatedAt: s.clock.Now(),
		}
		return tx.Messages().Create(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages stays readable after the thread closes so both sides keep their history.
func (s *messageService) ListMessages(ctx context.Context, userID, bookingID int32, page, pageSize int32) ([]domain.Message, int32, error) {
	b, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, 0, err
	}
	if b.PartyOf(userID) == domain.PartyNone {
		return nil, 0, domain.Unauthorizedf("user %d is not a party to booking %d", userID, bookingID)
	}
	page, pageSize, err = normalizeListArgs("", page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return s.store.Messages().ListByBooking(ctx, bookingID, pageSize, (page-1)*pageSize)
}

func (s *messageService) HasExchangedMessages(ctx context.Context, bookingID int32) (bool, error) {
	return hasExchangedMessages(ctx, s.store.Messages(), bookingID)
}
