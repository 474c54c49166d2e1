package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a record does not exist or is not owned by the caller.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned when the repository has no database handle.
var ErrUnavailable = errors.New("store unavailable")

// ErrEmptyPatch is returned when an update carries no fields.
var ErrEmptyPatch = errors.New("empty patch")

func available(db *sql.DB) error {
	if db == nil {
		return ErrUnavailable
	}
	return nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
