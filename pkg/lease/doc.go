// Package lease provides the coordination record and store abstraction the
// election engine runs against: a single named, versioned lease record with
// read-or-create and compare-and-replace semantics. The Kubernetes-backed
// store talks to coordination.k8s.io/v1 Leases; the memory store backs tests
// and cluster-less development.
package lease
