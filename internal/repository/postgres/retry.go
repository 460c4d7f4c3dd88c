package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	readAttempts = 3
	readBackoff  = 50 * time.Millisecond
)

// isRetryable reports errors where the statement never reached a healthy
// server, so running it again cannot double-apply anything.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code)
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// isCheckViolation is true when a row broke a table CHECK constraint, e.g. a
// balance outside [0, 1000000].
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation
}

// retryRead runs a read-only query, retrying transient connection failures
// with linear backoff.
func retryRead(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= readAttempts; attempt++ {
		if err = fn(); err == nil || !isRetryable(err) {
			return err
		}
		if attempt == readAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * readBackoff):
		}
	}
	return err
}
