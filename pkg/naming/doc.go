// Package naming sanitizes operator-supplied strings into valid Kubernetes
// object names.
package naming
