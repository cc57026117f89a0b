// Package memory configures the Go runtime memory limit from container
// settings passed through the environment.
package memory
