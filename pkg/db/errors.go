package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolationCode = "23505"

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. When constraintName is given, a violation of a differently named
// constraint does not match. SQLite reports partial-index violations without
// the index name, so under the dev driver any unique violation satisfies a
// named check.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolationCode {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if constraintName != "" {
		if strings.Contains(msg, constraintName) {
			return true
		}
		// postgres always names the violated constraint, so a message that
		// names a different one is a different guard
		if strings.Contains(msg, "duplicate key value") {
			return false
		}
		return strings.Contains(msg, "UNIQUE constraint failed")
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
