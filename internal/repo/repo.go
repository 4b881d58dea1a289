package repo

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means the lookup missed; absence is an expected
	// outcome, callers decide whether it is an error.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a unique constraint rejected the write.
	ErrConflict = errors.New("record already exists")
	// ErrUnavailable wraps transient store failures (connectivity,
	// timeouts). Never retried here; retry policy belongs to callers.
	ErrUnavailable = errors.New("store unavailable")
)

// GormRepo backs both the user store and the session store with one
// relational database. Uniqueness of emails, usernames and token
// strings is enforced by DB constraints, never by check-then-insert.
type GormRepo struct {
	DB *gorm.DB
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
