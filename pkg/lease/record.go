package lease

import "time"

// Record is the local view of the coordination lease. It mirrors the spec
// fields of a coordination.k8s.io/v1 Lease but is backend-agnostic so the election
// engine can run against any Store implementation.
//
// ResourceVersion is the opaque optimistic-concurrency token the record was
// read with. It is passed through to CompareAndReplace unchanged and never
// interpreted.
type Record struct {
	Name      string
	Namespace string

	// HolderIdentity is the identity of the presumed current leader, or
	// empty if the lease is unheld.
	HolderIdentity string

	// LeaseDurationSeconds is how long a renewal stays valid before the
	// lease is considered expired.
	LeaseDurationSeconds int32

	// AcquireTime is when HolderIdentity last changed to a new holder.
	// RenewTime is when the holder last confirmed liveness. A zero value
	// means the field was never set.
	AcquireTime time.Time
	RenewTime   time.Time

	ResourceVersion string
}

// HasHolder reports whether the record names a current holder.
func (r *Record) HasHolder() bool {
	return r != nil && r.HolderIdentity != ""
}

// Duration returns LeaseDurationSeconds as a time.Duration.
func (r *Record) Duration() time.Duration {
	return time.Duration(r.LeaseDurationSeconds) * time.Second
}

// Expired reports whether the lease has expired at the given instant. A
// record with no renew time never expires; it is simply unheld.
func (r *Record) Expired(now time.Time) bool {
	if r.RenewTime.IsZero() {
		return false
	}
	return now.After(r.RenewTime.Add(r.Duration()))
}

// DeepCopy returns an independent copy of the record.
func (r *Record) DeepCopy() *Record {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}
