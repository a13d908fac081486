package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateClientRef means an order with the same (user, client ref)
	// already exists.
	ErrDuplicateClientRef = errors.New("duplicate client order ref")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
