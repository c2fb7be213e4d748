// Package bolt implements the db.KVDB interface on top of bbolt, a
// single-file embedded B+tree database. It is the production engine for
// persistent record stores.
//
// The package focuses on:
//   - Durable single-file storage with crash-safe page writes
//   - Ordered key stepping via B+tree cursor seeks (O(log n) positioning)
//   - Read-only opens that map directly to bbolt's read-only mode
//   - A configurable per-entry value-size ceiling enforced on Put
//
// Every engine instance owns exactly one file handle, acquired in Open and
// released in Close. bbolt holds an exclusive lock on the file, so two live
// handles to the same file cannot exist within or across processes; opens of
// a locked file fail after the configured timeout.
//
// The ceiling enforced on Put is an engine policy, not a bbolt limitation:
// higher layers size their segments against MaxValueSize, and the engine
// rejecting oversized values keeps that contract honest.
package bolt
