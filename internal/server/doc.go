// Package server binds a route registry to a TCP listener.
//
// A gin engine with no routes of its own forwards every request through
// NoRoute into the dispatcher, behind the recovery, request ID, access log
// and body limit middleware. When metrics are enabled a second listener
// serves Prometheus metrics and health probes.
package server
