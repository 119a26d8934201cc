package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTransient marks a failure that may succeed when the unit of work is repeated.
var ErrTransient = errors.New("transient store failure")

// IsTransient reports serialization failures, deadlocks and connection
// errors raised before anything was sent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	return pgconn.SafeToRetry(err)
}
