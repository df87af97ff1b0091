package election

import (
	"context"
	"errors"

	"github.com/telekom/k8s-leaselock/pkg/metrics"
)

// ErrNotLeader is returned by the guard helpers when this instance does not
// hold the lease. Callers at an HTTP boundary should map it to a retryable
// status (503) so clients and load balancers know to look elsewhere. The
// error is uniform on purpose: whether the instance lost a race, hit an
// error storm or was never elected is an operational detail for the logs,
// not part of the contract.
var ErrNotLeader = errors.New("not the leader")

// LeaderOnly wraps fn so it only executes while this instance is the
// leader; otherwise the wrapper returns ErrNotLeader without calling fn.
func (e *Elector) LeaderOnly(fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return e.AsLeader(ctx, fn)
	}
}

// AsLeader executes fn if this instance is the leader at entry, else
// returns ErrNotLeader. The check is a point-in-time read with no lock:
// leadership can be lost while fn is still running, so long-running bodies
// needing stronger guarantees must re-validate.
func (e *Elector) AsLeader(ctx context.Context, fn func(ctx context.Context) error) error {
	if !e.IsLeader() {
		metrics.NotLeaderRejections.Inc()
		return ErrNotLeader
	}
	return fn(ctx)
}
