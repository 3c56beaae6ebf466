package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// ErrInvalidReference is returned when a write points at a row that does not exist.
var ErrInvalidReference = errors.New("invalid reference")

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return ErrConflict
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
	}
	return err
}
