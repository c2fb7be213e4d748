// Package memory implements the db.KVDB interface with a concurrent
// in-memory map. It exists for tests, fixtures and staging workloads where a
// caller assembles records before committing them to a persistent store.
//
// Ordered iteration is supported but O(n) per step, since the underlying
// xsync map keeps no key order. The engine advertises the same interface
// surface as the bolt engine minus FeaturePersistent, so conformance suites
// can feature-gate persistence checks.
package memory
