package engine

import "errors"

// Error kinds. Callers distinguish them with errors.Is; a decision is
// never produced alongside any of these.
var (
	// ErrStore marks a transient backing-store failure. The caller must
	// not retry silently: ticket state may have changed.
	ErrStore = errors.New("store error")

	// ErrInvalidInput marks a malformed ticket or similar-ticket entry.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvariant marks an internal contract violation, e.g. a weight
	// row not summing to 1.0 or a snapshot cross-reference failure.
	ErrInvariant = errors.New("invariant violation")
)
