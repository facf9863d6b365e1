// Package dbretry wraps persistence operations in a retry policy scoped to
// database lock contention. SQLite serializes writers, so under concurrent
// regeneration a write can land on a locked database; those errors are
// transient and worth retrying with backoff. Everything else fails fast.
package dbretry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Config controls the retry schedule. The defaults give attempts at
// 0.1s, 0.2s, 0.4s and 0.8s after the first failure.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1600 * time.Millisecond,
	}
}

// Retryer executes operations under the lock-retry policy.
type Retryer struct {
	policy retrypolicy.RetryPolicy[any]
}

func New(cfg Config) *Retryer {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay << 4
	}

	policy := retrypolicy.NewBuilder[any]().
		WithBackoff(cfg.InitialDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxAttempts - 1).
		HandleIf(func(_ any, err error) bool {
			return IsLockError(err)
		}).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[any]) {
			logrus.Warnf("[DBRETRY] database locked, retrying (attempt %d): %v", e.Attempts(), e.LastError())
		}).
		Build()

	return &Retryer{policy: policy}
}

// Do runs op, retrying lock errors on the configured schedule. Non-lock
// errors return immediately after a single invocation; once attempts are
// exhausted the last lock error comes back unwrapped.
func (r *Retryer) Do(ctx context.Context, op func() error) error {
	return failsafe.With(r.policy).WithContext(ctx).Run(op)
}

var defaultRetryer = New(DefaultConfig())

// Do runs op under the default policy.
func Do(ctx context.Context, op func() error) error {
	return defaultRetryer.Do(ctx, op)
}

// IsLockError classifies lock contention across the two supported drivers.
func IsLockError(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", // lock_not_available
			"40001", // serialization_failure
			"40P01": // deadlock_detected
			return true
		}
		return false
	}

	// Wrapped or stringified driver errors (GORM passes some through fmt).
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
