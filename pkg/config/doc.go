// Package config loads the leaselock YAML configuration file and applies
// defaults mirroring the standard Kubernetes leader election timings.
package config
