package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrGatewayUnavailable is returned when the ledger cannot be read.
	// Callers surface it as "no data" rather than showing stale values.
	ErrGatewayUnavailable = errors.New("ledger gateway unavailable")

	// ErrLocationNotFound is returned when a location id is outside 0..count-1
	ErrLocationNotFound = errors.New("location not found")

	// ErrNoLeaseForTenant is returned when no active location is assigned to an identity
	ErrNoLeaseForTenant = errors.New("no active lease for tenant")

	// ErrConfirmationTimeout is returned when a submitted operation was not
	// observed as confirmed within the caller-supplied horizon. The operation
	// may still confirm later; retry policy is the caller's decision.
	ErrConfirmationTimeout = errors.New("confirmation not observed within wait horizon")
)

// PreconditionError is returned when an operation is rejected locally,
// before anything is submitted to the ledger.
type PreconditionError struct {
	Op         string
	LocationID uint64
	Reason     string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s rejected for location %d: %s", e.Op, e.LocationID, e.Reason)
}

// SubmissionError is returned when the ledger declined a write before any
// state change took effect.
type SubmissionError struct {
	Op         string
	LocationID uint64
	Err        error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s submission failed for location %d: %v", e.Op, e.LocationID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
