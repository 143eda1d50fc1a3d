package database

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("database: record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint. Concurrent provisioning for the same new email relies on
	// this surfacing as a detectable conflict.
	ErrDuplicate = errors.New("database: duplicate record")
)

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// IsNotFound checks whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate checks whether err is a uniqueness conflict.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
