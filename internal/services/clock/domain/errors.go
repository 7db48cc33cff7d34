package domain

import "errors"

var (
	// ErrOwnerIDRequired indicates a missing owner identity.
	ErrOwnerIDRequired = errors.New("owner id is required")
	// ErrUnauthorized indicates the caller may not perform the transition.
	ErrUnauthorized = errors.New("caller is not allowed to act on this session")
	// ErrAlreadyFinalized indicates a transition attempted on a closed session.
	ErrAlreadyFinalized = errors.New("session is already finalized")
	// ErrInvalidTransition indicates the transition is not legal in the
	// session's current state.
	ErrInvalidTransition = errors.New("transition is not legal in the current state")
	// ErrInconsistentHistory indicates an impossible action ordering, such as
	// a resume without a matching pause or a negative elapsed time. Sessions
	// observing it are frozen, never silently repaired.
	ErrInconsistentHistory = errors.New("session history is inconsistent")
)
