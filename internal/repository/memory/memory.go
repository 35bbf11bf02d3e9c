// Package memory is an in-process Store for development and tests. A single mutex serializes
// units of work; each one runs against a copy of the state that replaces the live state only
// when fn succeeds.
package memory

import (
	"context"
	"sync"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/repository"
)

type state struct {
	users         map[int32]domain.User
	items         map[int32]domain.Item
	bookings      map[int32]domain.Booking
	messages      []domain.Message
	notifications map[int32]domain.Notification

	nextUserID         int32
	nextItemID         int32
	nextBookingID      int32
	nextMessageID      int32
	nextNotificationID int32
}

func newState() *state {
	return &state{
		users:         map[int32]domain.User{},
		items:         map[int32]domain.Item{},
		bookings:      map[int32]domain.Booking{},
		notifications: map[int32]domain.Notification{},
	}
}

func (s *state) clone() *state {
	c := *s
	c.users = make(map[int32]domain.User, len(s.users))
	for k, v := range s.users {
		c.users[k] = v
	}
	c.items = make(map[int32]domain.Item, len(s.items))
	for k, v := range s.items {
		c.items[k] = v
	}
	c.bookings = make(map[int32]domain.Booking, len(s.bookings))
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	c.messages = append([]domain.Message(nil), s.messages...)
	c.notifications = make(map[int32]domain.Notification, len(s.notifications))
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	return &c
}

// access runs fn against some state: the live one under the store lock, or a transaction's copy.
type access func(fn func(st *state) error) error

type repos struct {
	users         *userRepository
	items         *itemRepository
	bookings      *bookingRepository
	messages      *messageRepository
	notifications *notificationRepository
}

func newRepos(run access) *repos {
	return &repos{
		users:         &userRepository{run: run},
		items:         &itemRepository{run: run},
		bookings:      &bookingRepository{run: run},
		messages:      &messageRepository{run: run},
		notifications: &notificationRepository{run: run},
	}
}

func (r *repos) Users() repository.UserRepository                 { return r.users }
func (r *repos) Items() repository.ItemRepository                 { return r.items }
func (r *repos) Bookings() repository.BookingRepository           { return r.bookings }
func (r *repos) Messages() repository.MessageRepository           { return r.messages }
func (r *repos) Notifications() repository.NotificationRepository { return r.notifications }

type Store struct {
	mu    sync.Mutex
	state *state
	*repos
}

func NewStore() *Store {
	s := &Store{state: newState()}
	s.repos = newRepos(s.locked)
	return s
}

func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	tx := newRepos(func(f func(st *state) error) error { return f(working) })
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = working
	return nil
}
