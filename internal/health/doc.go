// Package health serves liveness and readiness probes for the operations
// listener. Readiness aggregates named checks; any unhealthy check turns
// the probe into a 503.
package health
