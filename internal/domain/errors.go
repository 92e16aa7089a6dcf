package domain

import "errors"

// Sentinel errors shared across stores and handlers.
var (
	// ErrNotFound indicates the requested entity is not present in the
	// local cache or the backend reported it missing.
	ErrNotFound = errors.New("not found")

	// ErrOwnStrategy indicates an attempt to subscribe to a strategy the
	// current user published. The backend enforces this too; the local
	// check exists so the refusal never reaches the network.
	ErrOwnStrategy = errors.New("cannot subscribe to your own strategy")

	// ErrNotAuthenticated indicates an operation that requires a session
	// was attempted without one.
	ErrNotAuthenticated = errors.New("not authenticated")
)
