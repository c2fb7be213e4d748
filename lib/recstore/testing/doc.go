// Package testing provides a reusable conformance suite for implementations
// of the record store contract.
//
// An implementation package runs the suite from its own tests by supplying
// a Factory:
//
//	func Test(t *testing.T) {
//		rstesting.RunRecordStoreTests(t, "MyStore", rstesting.Factory{
//			New: func(t *testing.T) recstore.RecordStore { ... },
//			Capacity: myPayloadCapacity,
//			Reopen: func(t *testing.T, s recstore.RecordStore, m recstore.Mode) recstore.RecordStore { ... },
//		})
//	}
//
// The suite covers round trips across segmentation boundaries, key
// uniqueness, replace and remove semantics, length resolution, cursor
// traversal including exhaustion and recovery, cursor positioning, key
// validation and read-only gating. Implementations that cannot reopen a
// store (volatile ones) leave Reopen nil and the read-only cases are
// skipped.
package testing
