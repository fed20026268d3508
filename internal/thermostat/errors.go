package thermostat

import "errors"

// Sentinel errors. Use errors.Is() to check for these in calling code.
var (
	// ErrUnknownDevice is returned when a serial has no machine in the router.
	ErrUnknownDevice = errors.New("thermostat: unknown device")

	// ErrDuplicateDevice is returned when adding a serial that is already routed.
	ErrDuplicateDevice = errors.New("thermostat: device already registered")

	// ErrInvalidIdentity is returned for an identity without a usable serial.
	ErrInvalidIdentity = errors.New("thermostat: invalid identity")

	// ErrMalformedTopic is returned for topics with fewer than four levels.
	ErrMalformedTopic = errors.New("thermostat: malformed topic")

	// ErrForeignPrefix is returned for topics outside the configured prefix.
	ErrForeignPrefix = errors.New("thermostat: topic outside prefix")

	// ErrUnhandledField is returned for (scope, field) pairs nothing consumes.
	ErrUnhandledField = errors.New("thermostat: unhandled field")

	// ErrInvalidValue is returned when a payload cannot be coerced to the
	// type its field needs.
	ErrInvalidValue = errors.New("thermostat: invalid value for field")

	// ErrLoopStopped is returned when submitting work to a stopped loop.
	ErrLoopStopped = errors.New("thermostat: event loop stopped")
)
