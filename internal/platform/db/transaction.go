package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
)

// ErrRetriesExhausted is returned when every serializable attempt hit a
// serialization failure.
var ErrRetriesExhausted = errors.New("serializable transaction retries exhausted")

// TxPolicy bounds one serializable unit of work.
type TxPolicy struct {
	MaxAttempts int
	Timeout     time.Duration
	// Backoff is the base sleep between attempts; attempt n waits n*Backoff.
	Backoff time.Duration
}

func (p TxPolicy) normalized() TxPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

// RunSerializable executes fn in a SERIALIZABLE transaction and replays it
// from scratch on serialization failures or deadlocks. Each attempt is bounded
// by the policy timeout; caller cancellation aborts without partial writes.
func RunSerializable(ctx context.Context, db *gorm.DB, policy TxPolicy, fn func(tx *gorm.DB) error) error {
	policy = policy.normalized()
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = runAttempt(ctx, db, policy.Timeout, fn)
		if lastErr == nil || !IsSerializationFailure(lastErr) {
			return lastErr
		}
		if policy.Backoff > 0 && attempt < policy.MaxAttempts {
			timer := time.NewTimer(time.Duration(attempt) * policy.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, policy.MaxAttempts, lastErr)
}

func runAttempt(ctx context.Context, db *gorm.DB, timeout time.Duration, fn func(tx *gorm.DB) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.WithContext(attemptCtx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// IsSerializationFailure reports whether err is a retryable conflict raised
// by Postgres for a concurrent serializable transaction.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

// TransactionTime returns the server-side transaction start timestamp, which
// is constant for the lifetime of tx.
func TransactionTime(tx *gorm.DB) (time.Time, error) {
	var row struct {
		Now time.Time `gorm:"column:now"`
	}
	if err := tx.Raw("SELECT transaction_timestamp() AS now").Scan(&row).Error; err != nil {
		return time.Time{}, err
	}
	return row.Now.UTC(), nil
}
