package memory

import (
	"context"
	"sort"
	"time"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/repository"

	"github.com/cockroachdb/errors"
)

type userRepository struct{ run access }

func (r *userRepository) Create(_ context.Context, u *domain.User) error {
	return r.run(func(st *state) error {
		st.nextUserID++
		u.ID = st.nextUserID
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) GetByID(_ context.Context, id int32) (*domain.User, error) {
	var out *domain.User
	err := r.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.NotFoundf("user %d not found", id)
		}
		out = &u
		return nil
	})
	return out, err
}

type itemRepository struct{ run access }

func (r *itemRepository) Create(_ context.Context, it *domain.Item) error {
	return r.run(func(st *state) error {
		st.nextItemID++
		it.ID = st.nextItemID
		st.items[it.ID] = *it
		return nil
	})
}

func (r *itemRepository) GetByID(_ context.Context, id int32) (*domain.Item, error) {
	var out *domain.Item
	err := r.run(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return domain.NotFoundf("item %d not found", id)
		}
		out = &it
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock here: the store mutex already serializes units of work.
func (r *itemRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Item, error) {
	return r.GetByID(ctx, id)
}

type bookingRepository struct{ run access }

func (r *bookingRepository) Create(_ context.Context, b *domain.Booking) error {
	return r.run(func(st *state) error {
		st.nextBookingID++
		b.ID = st.nextBookingID
		st.bookings[b.ID] = *b
		return nil
	})
}

func (r *bookingRepository) GetByID(_ context.Context, id int32) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.run(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return domain.NotFoundf("booking %d not found", id)
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *bookingRepository) Update(_ context.Context, b *domain.Booking) error {
	return r.run(func(st *state) error {
		stored, ok := st.bookings[b.ID]
		if !ok {
			return domain.NotFoundf("booking %d not found", b.ID)
		}
		if stored.Version != b.Version {
			return errors.Wrapf(repository.ErrStaleVersion, "booking %d at version %d", b.ID, b.Version)
		}
		stored.Status = b.Status
		stored.RenterAgreed = b.RenterAgreed
		stored.OwnerAgreed = b.OwnerAgreed
		stored.AgreedAt = b.AgreedAt
		stored.DeliveredAt = b.DeliveredAt
		stored.ReturnedAt = b.ReturnedAt
		stored.UpdatedAt = b.UpdatedAt
		stored.Version++
		st.bookings[b.ID] = stored
		b.Version = stored.Version
		return nil
	})
}

func (r *bookingRepository) PromoteToAgreed(_ context.Context, id int32, at time.Time) (bool, error) {
	promoted := false
	err := r.run(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok || b.Status != domain.BookingStatusConfirmed || !b.BothAgreed() {
			return nil
		}
		b.Status = domain.BookingStatusAgreed
		t := at
		b.AgreedAt = &t
		b.UpdatedAt = at
		b.Version++
		st.bookings[id] = b
		promoted = true
		return nil
	})
	return promoted, err
}

func (r *bookingRepository) filter(keep func(b *domain.Booking) bool) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.run(func(st *state) error {
		for _, b := range st.bookings {
			if keep(&b) {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}

func (r *bookingRepository) ListActiveByItem(_ context.Context, itemID int32) ([]domain.Booking, error) {
	out, err := r.filter(func(b *domain.Booking) bool {
		return b.ItemID == itemID && b.Status.IsActive()
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *bookingRepository) ListByRenter(_ context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.page(func(b *domain.Booking) bool {
		return b.RenterID == renterID && (status == "" || string(b.Status) == status)
	}, page, pageSize)
}

func (r *bookingRepository) ListByOwner(_ context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.page(func(b *domain.Booking) bool {
		return b.OwnerID == ownerID && (status == "" || string(b.Status) == status)
	}, page, pageSize)
}

func (r *bookingRepository) page(keep func(b *domain.Booking) bool, page, pageSize int32) ([]domain.Booking, int32, error) {
	all, err := r.filter(keep)
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r *bookingRepository) ListDueForReturn(_ context.Context, endDate string) ([]domain.Booking, error) {
	out, err := r.filter(func(b *domain.Booking) bool {
		return b.Status == domain.BookingStatusDelivered && b.EndDate == endDate
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func paginate[T any](all []T, page, pageSize int32) []T {
	return window(all, (int64(page)-1)*int64(pageSize), pageSize)
}

func window[T any](all []T, offset int64, limit int32) []T {
	if offset < 0 || limit <= 0 || offset >= int64(len(all)) {
		return nil
	}
	end := offset + int64(limit)
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[offset:end]
}

type messageRepository struct{ run access }

func (r *messageRepository) Create(_ context.Context, m *domain.Message) error {
	return r.run(func(st *state) error {
		st.nextMessageID++
		m.ID = st.nextMessageID
		st.messages = append(st.messages, *m)
		return nil
	})
}

func (r *messageRepository) CountByBooking(_ context.Context, bookingID int32) (int32, error) {
	var n int32
	err := r.run(func(st *state) error {
		for _, m := range st.messages {
			if m.BookingID == bookingID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *messageRepository) ListByBooking(_ context.Context, bookingID int32, limit, offset int32) ([]domain.Message, int32, error) {
	var all []domain.Message
	err := r.run(func(st *state) error {
		for _, m := range st.messages {
			if m.BookingID == bookingID {
				all = append(all, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return window(all, int64(offset), limit), int32(len(all)), nil
}

type notificationRepository struct{ run access }

func (r *notificationRepository) Create(_ context.Context, n *domain.Notification) error {
	if n.DeliveryStatus == "" {
		n.DeliveryStatus = domain.DeliveryPending
	}
	if n.NextAttemptAt.IsZero() {
		n.NextAttemptAt = n.CreatedOn
	}
	return r.run(func(st *state) error {
		st.nextNotificationID++
		n.ID = st.nextNotificationID
		st.notifications[n.ID] = *n
		return nil
	})
}

func (r *notificationRepository) List(_ context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	var all []domain.Notification
	err := r.run(func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID {
				all = append(all, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedOn.Equal(all[j].CreatedOn) {
			return all[i].CreatedOn.After(all[j].CreatedOn)
		}
		return all[i].ID > all[j].ID
	})
	return window(all, int64(offset), limit), int32(len(all)), nil
}

func (r *notificationRepository) MarkAsRead(_ context.Context, id, userID int32) error {
	return r.run(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.UserID != userID {
			return domain.NotFoundf("notification %d not found", id)
		}
		n.IsRead = true
		st.notifications[id] = n
		return nil
	})
}

func (r *notificationRepository) ClaimPendingDeliveries(_ context.Context, now time.Time, limit int32, lease time.Duration) ([]domain.Notification, error) {
	var claimed []domain.Notification
	err := r.run(func(st *state) error {
		var due []domain.Notification
		for _, n := range st.notifications {
			switch n.DeliveryStatus {
			case domain.DeliveryPending, domain.DeliveryFailed, domain.DeliveryProcessing:
				if !n.NextAttemptAt.After(now) {
					due = append(due, n)
				}
			}
		}
		sort.Slice(due, func(i, j int) bool {
			if !due[i].NextAttemptAt.Equal(due[j].NextAttemptAt) {
				return due[i].NextAttemptAt.Before(due[j].NextAttemptAt)
			}
			return due[i].ID < due[j].ID
		})
		if int32(len(due)) > limit {
			due = due[:limit]
		}
		for _, n := range due {
			n.DeliveryStatus = domain.DeliveryProcessing
			n.NextAttemptAt = now.Add(lease)
			n.UpdatedOn = now
			st.notifications[n.ID] = n
			claimed = append(claimed, n)
		}
		return nil
	})
	return claimed, err
}

func (r *notificationRepository) MarkDelivered(_ context.Context, id int32, at time.Time) error {
	return r.run(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok {
			return domain.NotFoundf("notification %d not found", id)
		}
		t := at
		n.DeliveryStatus = domain.DeliveryDelivered
		n.DeliveredAt = &t
		n.UpdatedOn = at
		n.LastError = ""
		st.notifications[id] = n
		return nil
	})
}

func (r *notificationRepository) MarkDeliveryFailed(_ context.Context, id int32, attempts int32, nextAttemptAt time.Time, lastError string, dead bool) error {
	return r.run(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok {
			return domain.NotFoundf("notification %d not found", id)
		}
		n.DeliveryStatus = domain.DeliveryFailed
		if dead {
			n.DeliveryStatus = domain.DeliveryDead
		}
		n.DeliveryAttempts = attempts
		n.NextAttemptAt = nextAttemptAt
		n.LastError = lastError
		st.notifications[id] = n
		return nil
	})
}
