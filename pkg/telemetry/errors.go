package telemetry

import "github.com/cockroachdb/errors"

// Decode failures are classified with errors.Is against these sentinels.
// ErrTooShort is an expected, frequent condition on live traffic (truncated
// trailing datagrams); callers count it rather than log it.
var (
	// ErrTooShort reports a buffer smaller than the attempted decode requires.
	ErrTooShort = errors.New("datagram too short")

	// ErrInvalidCarIndex reports a car index outside [0, MaxCars).
	ErrInvalidCarIndex = errors.New("car index out of range")

	// ErrFieldRange reports a normalized float wire field outside its
	// documented range (or NaN). Integer wire fields are never range-checked;
	// implausible raw values pass through to the consumer.
	ErrFieldRange = errors.New("normalized field out of range")
)
