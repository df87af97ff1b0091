// Package election implements lease-based leader election: a pure
// acquire/renew decision over the lease record, a two-state control loop
// (candidate or leader) with edge-triggered callbacks and error backoff, and
// guard helpers that reject work on non-leader instances.
package election
