// Package props implements the reactive property model that show objects
// are built on: a static schema registry tracking which attributes are
// properties across a type hierarchy, reactive objects whose writes emit
// change signals, per-instance ad-hoc properties, and a nested key-value
// serialization contract used for persistence and UI binding.
//
// Types are defined once, at package initialization, with NewType. Every
// subtype's property set is a superset of its ancestors', and post-definition
// schema changes cascade to all live subtypes.
//
// The model itself is not synchronized: schema registration and object
// mutation are expected to run on the application's single model goroutine.
// Signals are the only concurrency-crossing primitive; see package signal.
package props
