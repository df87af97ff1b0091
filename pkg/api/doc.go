// Package api exposes the leaselock HTTP surface: election status, a
// leader-gated health endpoint for load balancers, and Prometheus metrics.
package api
