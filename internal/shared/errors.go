package shared

import "errors"

// Error taxonomy for the reconciliation core. Domain packages wrap these
// sentinels so callers can classify any rejection with errors.Is.
var (
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a conditional write lost to existing state,
	// e.g. a shift number already open or closed.
	ErrConflict = errors.New("conflict")
	// ErrLocked indicates the mutation was rejected by the day lock policy.
	ErrLocked = errors.New("locked")
	// ErrReasonRequired indicates a post-close admin edit without justification.
	ErrReasonRequired = errors.New("reason required")
	// ErrNotFound indicates the referenced station-day, shift or transaction is absent.
	ErrNotFound = errors.New("not found")
)
