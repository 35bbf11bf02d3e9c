package jobs

import (
	"context"
	"fmt"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/logger"
)

// SendReturnReminders emails renters whose delivered booking ends tomorrow. It only reads
// booking state.
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery("SendReturnReminders", func(ctx context.Context) error {
		sent, err := jr.sendReturnReminders(ctx)
		logger.WithJob("SendReturnReminders").Info("Return reminders sent", "count", sent)
		return err
	})
}

func (jr *JobRunner) sendReturnReminders(ctx context.Context) (int, error) {
	if jr.services.Email == nil {
		logger.Warn("Email is not configured, skipping return reminders")
		return 0, nil
	}

	tomorrow := domain.Truncate(jr.clock.Now()).AddDate(0, 0, 1).Format(domain.DateLayout)
	bookings, err := jr.store.Bookings().ListDueForReturn(ctx, tomorrow)
	if err != nil {
		return 0, fmt.Errorf("failed to list bookings due for return: %w", err)
	}

	sent := 0
	for _, b := range bookings {
		renter, err := jr.store.Users().GetByID(ctx, b.RenterID)
		if err != nil {
			logger.Error("Failed to load renter", "booking_id", b.ID, "renter_id", b.RenterID, "error", err)
			continue
		}
		if renter.Email == "" {
			continue
		}
		title := fmt.Sprintf("item #%d", b.ItemID)
		if item, err := jr.store.Items().GetByID(ctx, b.ItemID); err == nil {
			title = item.Title
		}

		if err := jr.services.Email.SendReturnReminder(ctx, renter.Email, renter.Name, title, b.EndDate); err != nil {
			logger.Error("Failed to send return reminder", "booking_id", b.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
