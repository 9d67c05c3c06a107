package streams

import "errors"

var (
	// ErrInvalidAmount is returned when a stream is created with a
	// non-positive deposit.
	ErrInvalidAmount = errors.New("streams: amount must be positive")
	// ErrInvalidTimeRange is returned when the end timestamp is not strictly
	// after the start timestamp.
	ErrInvalidTimeRange = errors.New("streams: end time must be after start time")
	// ErrStreamNotFound is returned when the requested stream id is unknown.
	ErrStreamNotFound = errors.New("streams: stream not found")
	// ErrUnauthorized is returned when the caller does not hold the role the
	// operation requires.
	ErrUnauthorized = errors.New("streams: unauthorized caller")
	// ErrStreamCanceled is returned when a claim targets a canceled stream.
	ErrStreamCanceled = errors.New("streams: stream canceled")
	// ErrInsufficientClaimable is returned when a claim requests more than
	// the vested-but-unclaimed balance, or a non-positive amount.
	ErrInsufficientClaimable = errors.New("streams: insufficient claimable balance")
	// ErrInsufficientFunds is returned when an account transfer cannot be
	// covered by the source balance.
	ErrInsufficientFunds = errors.New("streams: insufficient balance")

	errNilState = errors.New("streams engine: state not configured")
)
