package fleet

import "errors"

// Error kinds returned by coordinator operations. Callers match them with
// errors.Is; the wrapped message says which entity or field was involved.
var (
	// ErrNotFound: a referenced driver, bus, route, stop, student, trip or
	// notification does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed: the operation needs state that has not been
	// reached, e.g. a driver with no assigned bus.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrForbidden: the caller acted on an entity outside their scope.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation: malformed input.
	ErrValidation = errors.New("validation error")

	// ErrPersistence: the store was unavailable or rejected a write.
	ErrPersistence = errors.New("persistence error")
)
