package lease

import (
	"context"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Store is the only component that talks to the coordination backend.
// Everything above it is pure or purely time-based, which is what lets the
// election loop run unmodified against the Kubernetes API or an in-process
// fake.
type Store interface {
	// ReadOrCreate returns the lease record, creating it with the given
	// initial holder and timestamps if it does not exist yet. If the create
	// races with another writer, the competitor's record is re-fetched and
	// returned as-is; the caller decides what that means for leadership.
	ReadOrCreate(ctx context.Context, initialHolder string, now time.Time) (*Record, error)

	// CompareAndReplace writes rec using the version token it was read
	// with. It returns false with a nil error when another writer updated
	// the record first; losing that race is an expected outcome of the
	// protocol, not an error. Any other backend failure is returned as an
	// error.
	CompareAndReplace(ctx context.Context, rec *Record) (bool, error)
}

// ErrorClass buckets store errors for logging and metrics. The distinction is
// operational only: the loop retries both classes, but permission errors will
// not self-heal without an RBAC fix and are called out as such.
type ErrorClass string

const (
	ClassPermission ErrorClass = "permission"
	ClassTransient  ErrorClass = "transient"
)

// Classify maps a store error onto its class. Unauthorized and Forbidden
// responses are permission errors; everything else (timeouts, 5xx,
// connection failures) is treated as transient.
func Classify(err error) ErrorClass {
	if apierrors.IsUnauthorized(err) || apierrors.IsForbidden(err) {
		return ClassPermission
	}
	return ClassTransient
}
