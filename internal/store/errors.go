package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable marks infrastructure-level store failures, as opposed
// to a key simply being absent. Callers surface it as a server error.
var ErrUnavailable = errors.New("store unavailable")

// isSQLiteConflict checks for SQLITE_BUSY and "database is locked"
// errors. These occur when the database is held by another connection.
func isSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// wrapErr annotates a driver error with the failed operation and tags
// concurrency conflicts as ErrUnavailable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isSQLiteConflict(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
