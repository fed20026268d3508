package catalog

import "errors"

var (
	// ErrNotFound is returned when no record exists for a serial.
	ErrNotFound = errors.New("catalog: accessory not found")

	// ErrExists is returned when creating a record for a serial that
	// already has one.
	ErrExists = errors.New("catalog: accessory already exists")
)
