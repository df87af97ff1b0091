package election

import (
	"time"

	"github.com/telekom/k8s-leaselock/pkg/lease"
)

// decide is the pure election decision: given the record as last read, this
// instance's identity and the current time, it produces the record to submit
// and whether submitting it would make this instance the holder.
//
// A nil returned record means no write should be attempted this cycle (the
// lease is held and live by someone else). The rules apply in order:
//
//  1. We already hold the lease: renew it. AcquireTime is untouched.
//  2. Nobody holds the lease, or it was never renewed: acquire it.
//  3. The holder's lease has expired: acquire it.
//  4. Otherwise: cede.
//
// Expiry honors the duration written on the record; records that carry none
// are judged against our configured duration.
func decide(rec *lease.Record, identity string, now time.Time, leaseDuration time.Duration) (*lease.Record, bool) {
	seconds := int32(leaseDuration / time.Second)

	view := rec.DeepCopy()
	if view.LeaseDurationSeconds == 0 {
		view.LeaseDurationSeconds = seconds
	}

	next := rec.DeepCopy()
	switch {
	case rec.HolderIdentity == identity:
		next.RenewTime = now
		next.LeaseDurationSeconds = seconds
		return next, true

	case !rec.HasHolder(), rec.RenewTime.IsZero(), view.Expired(now):
		next.HolderIdentity = identity
		next.AcquireTime = now
		next.RenewTime = now
		next.LeaseDurationSeconds = seconds
		return next, true

	default:
		return nil, false
	}
}
