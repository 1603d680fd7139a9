// Package sqlxrepos implements the core repositories over Postgres via sqlx.
package sqlxrepos

import (
	"context"
	"database/sql/driver"
	"net"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core"
)

// isTransient reports whether an error is worth retrying: connection-level
// failures only, never SQL or constraint errors.
func isTransient(err error) bool {
	err = errors.Cause(err)
	if err == driver.ErrBadConn {
		return true
	}
	if _, ok := err.(net.Error); ok {
		return true
	}
	if pqErr, ok := err.(*pq.Error); ok {
		// 08: connection exception; 57: operator intervention (shutdowns)
		switch pqErr.Code.Class() {
		case "08", "57":
			return true
		}
	}
	return false
}

type retrier struct {
	max  int
	base time.Duration
}

func newRetrier(conf core.DatabaseConfig) retrier {
	r := retrier{max: conf.MaxRetries, base: conf.RetryBaseDelay}
	if r.max <= 0 {
		r.max = 5
	}
	if r.base <= 0 {
		r.base = 100 * time.Millisecond
	}
	return r
}

// do runs op, retrying transient failures with doubling delays up to the
// attempt bound. An exhausted retry is marked temporary so the API layer can
// render a retry affordance instead of a hard failure.
func (r retrier) do(ctx context.Context, op func() error) error {
	var err error
	delay := r.base
	for attempt := 0; attempt <= r.max; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err = op(); err == nil || !isTransient(err) {
			return err
		}
	}
	return core.NewTransientError(err)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}
