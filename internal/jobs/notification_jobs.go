package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/logger"
)

const maxDeliveryBackoff = time.Hour

// DispatchNotifications drains the notification outbox
func (jr *JobRunner) DispatchNotifications() {
	jr.runWithRecovery("DispatchNotifications", func(ctx context.Context) error {
		delivered, failed, err := jr.dispatchNotifications(ctx)
		logger.WithJob("DispatchNotifications").Info("Outbox batch processed", "delivered", delivered, "failed", failed)
		return err
	})
}

func (jr *JobRunner) dispatchNotifications(ctx context.Context) (delivered, failed int, err error) {
	cfg := jr.config.Notifications
	now := jr.clock.Now()

	batch, err := jr.store.Notifications().ClaimPendingDeliveries(ctx, now, cfg.BatchSize, cfg.Lease())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to claim notifications: %w", err)
	}

	for i := range batch {
		n := &batch[i]
		permanent, deliverErr := jr.deliver(ctx, n)
		if deliverErr == nil {
			if err := jr.store.Notifications().MarkDelivered(ctx, n.ID, jr.clock.Now()); err != nil {
				return delivered, failed, fmt.Errorf("failed to mark notification %d delivered: %w", n.ID, err)
			}
			delivered++
			continue
		}

		attempts := n.DeliveryAttempts + 1
		dead := permanent || attempts >= cfg.MaxAttempts
		next := jr.clock.Now().Add(retryDelay(cfg.Backoff(), attempts))
		logger.Warn("Notification delivery failed",
			"notification_id", n.ID, "attempts", attempts, "dead", dead, "error", deliverErr)
		if err := jr.store.Notifications().MarkDeliveryFailed(ctx, n.ID, attempts, next, deliverErr.Error(), dead); err != nil {
			return delivered, failed, fmt.Errorf("failed to mark notification %d failed: %w", n.ID, err)
		}
		failed++
	}
	return delivered, failed, nil
}

// deliver pushes n through every sink. permanent is set when retrying cannot help.
func (jr *JobRunner) deliver(ctx context.Context, n *domain.Notification) (permanent bool, err error) {
	user, err := jr.store.Users().GetByID(ctx, n.UserID)
	if err != nil {
		return domain.KindOf(err) == domain.KindNotFound, err
	}

	var errs []string
	for _, sink := range jr.sinks {
		if err := sink.Deliver(ctx, user, n); err != nil {
			errs = append(errs, sink.Name()+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return false, errors.New(strings.Join(errs, "; "))
	}
	return false, nil
}

// retryDelay doubles base per failed attempt, capped at maxDeliveryBackoff.
func retryDelay(base time.Duration, attempts int32) time.Duration {
	d := base
	for i := int32(1); i < attempts; i++ {
		d *= 2
		if d >= maxDeliveryBackoff {
			return maxDeliveryBackoff
		}
	}
	return d
}
