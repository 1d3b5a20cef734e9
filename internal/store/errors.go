package store

import (
	"errors"

	"github.com/mvreilly/daydeck/internal/task"
)

// ErrNotFound is returned when a task or subtask ID is absent from the
// fetched day document. Not retried: retrying a read-modify-write against
// a moved target is unsafe.
var ErrNotFound = errors.New("not found")

// ErrStoreUnavailable is returned on transport or server failure. The
// tracker absorbs these into its retry loop.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrRejected is returned when the store refuses the request outright:
// bad credentials, a malformed query. Not retried: the same request
// would fail the same way.
var ErrRejected = errors.New("request rejected")

// ErrConflict is returned in conflict-check mode when a write's
// updated_at precondition no longer matches the stored row. Treated as
// retryable by the tracker (the retry refetches the document).
var ErrConflict = errors.New("concurrent write conflict")

// Retryable reports whether an error should enter the tracker's retry
// loop. Validation and not-found failures are surfaced synchronously and
// never retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var verr *task.ValidationError
	if errors.As(err, &verr) {
		return false
	}
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrRejected)
}
