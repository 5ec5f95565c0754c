package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

const (
	uniqueViolation           pq.ErrorCode = "23505"
	invalidTextRepresentation pq.ErrorCode = "22P02"
)

// mapUniqueViolation converts a postgres unique violation into ErrDuplicate and
// leaves every other error untouched.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// isInvalidInput reports a value postgres could not cast to the column type,
// such as a malformed uuid. No row can match it.
func isInvalidInput(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}
