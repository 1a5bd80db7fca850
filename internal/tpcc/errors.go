package tpcc

import "errors"

// Failure taxonomy for transaction outcomes. Business-expected negative
// outcomes (missing entity, duplicate or already-delivered order) are
// distinguished from backend faults so callers never have to inspect
// message text.
var (
	// ErrNotFound indicates a referenced customer, item or order does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or state-guard violation.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates malformed input rejected before touching the backend.
	ErrValidation = errors.New("validation failed")
)

// Failure classes as reported in outcome records and metrics labels.
const (
	ClassOK         = "ok"
	ClassNotFound   = "not_found"
	ClassConflict   = "conflict"
	ClassValidation = "validation"
	ClassStorage    = "storage"
)

// FailureClass reports which taxonomy class an error belongs to. Anything
// outside the business taxonomy is a storage fault: the backend failed to
// execute a statement or atomic unit.
func FailureClass(err error) string {
	switch {
	case err == nil:
		return ClassOK
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrConflict):
		return ClassConflict
	case errors.Is(err, ErrValidation):
		return ClassValidation
	default:
		return ClassStorage
	}
}

// Expected reports whether the error is a business-expected negative
// outcome rather than a systemic fault.
func Expected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrValidation)
}
