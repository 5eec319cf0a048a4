// Package repository implements the relational stores for the
// dormitory core and the transactional coordinator that binds them
// together.  It also defines the error taxonomy shared by the service
// layer: handlers translate these sentinels into HTTP statuses, while
// the core itself never formats transport-level responses.
package repository

import "errors"

var (
	// ErrValidation is returned for malformed input such as a missing
	// owner reference or a non-positive payment amount.  The caller can
	// recover by correcting the request; it is never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced room, student,
	// transfer, maintenance record, invoice or payment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation is not permitted in
	// the entity's current state, e.g. deleting an approved transfer.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidTransition is returned when a status change violates a
	// state machine, e.g. touching a completed transfer.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConflict is returned for a duplicate active transfer request,
	// and for a storage serialization failure that survived the
	// coordinator's retry budget.
	ErrConflict = errors.New("conflict")

	// ErrCapacityExceeded is returned when an occupancy adjustment
	// would fall below zero or exceed the room's capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrRoomUnavailable is returned when a target room is full or
	// under maintenance at validation or commit time.
	ErrRoomUnavailable = errors.New("room unavailable")
)
