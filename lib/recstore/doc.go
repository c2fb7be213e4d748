// Package recstore provides the abstract contract for named, persistent
// record stores: keyed collections of arbitrary-length byte records used to
// hold large biometric artifacts such as images and minutiae records.
//
// The package focuses on:
//   - A unified interface (RecordStore) for record operations across
//     different backends
//   - Read-only versus read-write access modes, fixed at open time
//   - Stateful forward iteration over the key space with explicit
//     sequence modes
//   - A structured error system with typed return codes
//
// Key Components:
//
//   - RecordStore Interface: The core abstraction defining operations for
//     interacting with a record store. All implementations share this common
//     interface, allowing applications to switch between backends without
//     code changes. The interface methods return the package's Error type,
//     which carries a RetCode describing the failure class.
//
//   - Error System: A structured error reporting mechanism using typed error
//     codes (AlreadyExists, NotFound, ReadOnlyViolation, CorruptRecord,
//     IterationExhausted, ConfigurationError, StrategyError) and descriptive
//     messages. Use HasCode to branch on a failure class; all failures other
//     than the documented rollback-failure case are guaranteed no-ops on the
//     durable state.
//
//   - Factory: A function type that abstracts the creation of the underlying
//     db.KVDB engines, providing dependency injection and flexible
//     configuration of storage backends.
//
// Implementations:
//
//	The module includes three implementations of the RecordStore interface:
//
//	- Segmented database store (dbrs): The production implementation. It is
//	  backed by two db.KVDB engine files and transparently splits records
//	  larger than the engine's value-size ceiling across multiple physical
//	  entries. Available in "github.com/ValentinKolb/bioKV/lib/recstore/dbrs".
//
//	- Flat-file store (filers): One file per record under a store directory.
//	  Simple to inspect and repair with ordinary shell tools; suited to very
//	  large records. Available in
//	  "github.com/ValentinKolb/bioKV/lib/recstore/filers".
//
//	- In-memory store (memrs): Volatile, for tests and staging pipelines.
//	  Available in "github.com/ValentinKolb/bioKV/lib/recstore/memrs".
//
// Concurrency model: every operation runs to completion on the caller's
// goroutine and may block on file I/O. A store instance is not safe for
// concurrent use without external mutual exclusion; the iteration cursor is
// shared mutable state owned by the instance.
package recstore
