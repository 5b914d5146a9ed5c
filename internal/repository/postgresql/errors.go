package postgresql

import (
	"errors"
	"fmt"
)

// ErrDuplicateEmail is returned by Save when the email-uniqueness
// constraint is enabled and the address is already on record.
var ErrDuplicateEmail = errors.New("email already submitted")

func createQueryError(err error) error {
	return fmt.Errorf("failed to create query: %w", err)
}

func executeQueryError(err error) error {
	return fmt.Errorf("failed to execute query: %w", err)
}

func scanRowError(err error) error {
	return fmt.Errorf("failed to scan row: %w", err)
}

func collectRowsError(err error) error {
	return fmt.Errorf("failed to collect rows: %w", err)
}
