// Package errors provides the structured, coded errors surfaced by the
// cuekit bridge and CLI. Library packages (props, signal, store) return
// plain sentinel errors; this package wraps them with a stable code, a
// category, and actionable detail for terminal and log output.
package errors
