// Package identity derives the election identity and lease namespace for
// this process instance from its pod environment.
package identity
