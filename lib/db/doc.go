// Package db provides a standardized interface for keyed database engines.
// It defines a KVDB interface that allows for consistent interaction with
// various embedded database backends while abstracting implementation details.
//
// The package focuses on:
//   - A unified interface for keyed get/put/delete operations
//   - Ordered, positionless stepping through the key space
//   - A per-entry value-size ceiling that callers can query
//   - Feature discovery through capability flags
//   - Standardized metadata reporting
//
// Key Components:
//
//   - KVDB Interface: The core interface that all engine implementations must
//     satisfy. It provides methods for basic operations (Put, Get, Has, Delete),
//     ordered iteration (FirstKey, NextKey), durability control (Sync),
//     accounting (SpaceUsed, MaxValueSize) and metadata retrieval (GetInfo).
//
//   - Feature Flags: The Feature type defines capability flags that
//     implementations can advertise through the SupportsFeature method. This
//     allows clients to discover supported operations at runtime.
//
//   - Implementation Identifiers: The Implementation type provides string
//     constants for different database backends (currently "bolt" and "memory").
//
//   - Database Information: The DatabaseInfo structure provides standardized
//     reporting on database state, including size statistics, implementation
//     type, and implementation-specific metadata. Note: for some implementations
//     size statistics are estimated since a precise calculation can be expensive.
//
// Note on the Value-Size Ceiling:
//
// Every engine advertises a MaxValueSize. Put rejects larger values instead of
// silently truncating them. The ceiling exists so that higher layers (see the
// recstore packages) can split oversized records into multiple physical entries
// deterministically; engines themselves never segment.
//
// Note on Iteration:
//
// FirstKey and NextKey step through keys in byte-wise lexicographic order
// without holding any cursor state inside the engine. NextKey(after) returns
// the smallest key strictly greater than after, which gives callers direct
// positioning (seek) semantics where the backend supports it.
//
// Related Packages:
//
// The engines/bolt package (github.com/ValentinKolb/bioKV/lib/db/engines/bolt)
// provides the persistent implementation backed by bbolt, a single-file B+tree
// database. The engines/memory package provides a volatile implementation for
// tests and staging workloads.
//
// The testing package (github.com/ValentinKolb/bioKV/lib/db/testing) provides
// standardized tests and benchmarks for implementations of the db.KVDB
// interface:
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
