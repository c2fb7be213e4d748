// Package memrs provides a volatile, in-memory implementation of the record
// store contract. Records never touch disk and vanish on Close, which makes
// the package useful for test fixtures and for staging records before
// committing them to a persistent store.
//
// There is no value-size ceiling and therefore no segmentation; everything
// else (typed failures, cursor semantics, read-only gating via
// ReadOnlyView) matches the persistent implementations.
package memrs
