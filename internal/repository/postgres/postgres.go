package postgres

import (
	"context"
	"database/sql"
	"math/rand/v2"
	"time"

	"iznajmi-backend/internal/logger"
	"iznajmi-backend/internal/repository"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"

	maxTxRetries = 3
	retryBase    = 100 * time.Millisecond
)

var errMaxRetriesExceeded = errors.New("transaction failed after max retries")

// querier is satisfied by both *sql.DB and *sql.Tx so every repository works inside and
// outside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type repos struct {
	users         repository.UserRepository
	items         repository.ItemRepository
	bookings      repository.BookingRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
}

func newRepos(q querier) *repos {
	return &repos{
		users:         &userRepository{db: q},
		items:         &itemRepository{db: q},
		bookings:      &bookingRepository{db: q},
		messages:      &messageRepository{db: q},
		notifications: &notificationRepository{db: q},
	}
}

func (r *repos) Users() repository.UserRepository                 { return r.users }
func (r *repos) Items() repository.ItemRepository                 { return r.items }
func (r *repos) Bookings() repository.BookingRepository           { return r.bookings }
func (r *repos) Messages() repository.MessageRepository           { return r.messages }
func (r *repos) Notifications() repository.NotificationRepository { return r.notifications }

type Store struct {
	db *sql.DB
	*repos
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		repos: newRepos(db),
	}
}

// WithinTx runs fn in a serializable transaction and retries it on serialization failures,
// deadlocks and stale booking versions.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	for attempt := 0; attempt <= maxTxRetries; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}
		if attempt == maxTxRetries {
			logger.Error("Transaction failed after max retries", "attempts", attempt+1, "error", err)
			return errors.Mark(err, errMaxRetriesExceeded)
		}

		wait := backoff(attempt)
		logger.Warn("Retrying transaction", "attempt", attempt+1, "wait_ms", wait.Milliseconds(), "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return errMaxRetriesExceeded
}

func (s *Store) runOnce(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	if err := fn(ctx, newRepos(sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn("Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

func isRetryable(err error) bool {
	if errors.Is(err, repository.ErrStaleVersion) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgErrCodeSerializationFailure || pqErr.Code == pgErrCodeDeadlockDetected
	}
	return false
}

func backoff(attempt int) time.Duration {
	wait := time.Duration(1<<attempt) * retryBase
	return wait + time.Duration(rand.Int64N(int64(wait/5)))
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
