package bridge

import "errors"

var (
	// ErrNotStarted is returned when an operation needs a started bridge.
	ErrNotStarted = errors.New("bridge: not started")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("bridge: already started")
)
