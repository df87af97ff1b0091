// Package metrics defines Prometheus metrics for the leaselock elector,
// covering leadership state, election outcomes, lease renewals, update
// races, and store error classes.
package metrics
