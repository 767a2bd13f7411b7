package models

import "errors"

// Storage-level errors returned by repositories.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidValue is a value the column cannot hold (too long, out of range).
	ErrInvalidValue = errors.New("invalid column value")
)
