package engine

import "errors"

var (
	// ErrNoEligibleItems means Allocate found nothing lease-able; the caller
	// should retry later or widen the eligibility filters.
	ErrNoEligibleItems = errors.New("no eligible work items")

	// ErrSessionNotActive rejects Checkpoint/Finalize/RecordDecision against
	// a terminal or abandoned session.
	ErrSessionNotActive = errors.New("session not active")

	// ErrNotSessionOwner rejects operations by a curator other than the one
	// the session was allocated to.
	ErrNotSessionOwner = errors.New("session owned by different curator")

	// ErrInvalidAction rejects Finalize with an unrecognized action.
	ErrInvalidAction = errors.New("invalid finalize action")

	// ErrItemNotAssigned rejects a decision for an item outside the
	// session's assigned set.
	ErrItemNotAssigned = errors.New("item not assigned to session")
)
