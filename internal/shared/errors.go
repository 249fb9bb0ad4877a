package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced package or product does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDataIntegrity indicates malformed stored data, e.g. a package item
	// with a null product reference.
	ErrDataIntegrity = errors.New("data integrity violation")
)

// IntegrityError wraps ErrDataIntegrity with the offending entity.
func IntegrityError(entity string, id int64, detail string) error {
	return fmt.Errorf("%w: %s %d: %s", ErrDataIntegrity, entity, id, detail)
}

// UserSafeMessage returns a message safe to show to end users.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrDataIntegrity):
		return "The record is malformed. Please contact an administrator."
	default:
		return "An unexpected error occurred."
	}
}
