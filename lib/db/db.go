package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplBolt   Implementation = "bolt"
	ImplMemory Implementation = "memory"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeaturePut        Feature = 1 << iota // Support for Put operations
	FeatureGet                            // Support for Get operations
	FeatureDelete                         // Support for Delete operations
	FeatureHas                            // Support for Has operations
	FeatureIterate                        // Support for ordered key iteration
	FeatureSync                           // Support for durable Sync operations
	FeatureSpaceUsed                      // Support for on-disk footprint reporting
	FeaturePersistent                     // Data survives Close and reopen
)

func (f Feature) String() string {
	switch f {
	case FeaturePut:
		return "Put"
	case FeatureGet:
		return "Get"
	case FeatureDelete:
		return "Delete"
	case FeatureHas:
		return "Has"
	case FeatureIterate:
		return "Iterate"
	case FeatureSync:
		return "Sync"
	case FeatureSpaceUsed:
		return "SpaceUsed"
	case FeaturePersistent:
		return "Persistent"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	EntryCount        int            `json:"entry_count"`
	MaxValueSize      int            `json:"max_value_size"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for keyed database engines with a per-entry
// value-size ceiling. It provides methods for basic operations like Put, Get,
// Delete, and ordered stepping through the key space.
// Any implementation of this interface must manage keys in a consistent way:
// iteration order is the byte-wise lexicographic order of keys.
// Implementations can vary in their feature support, which can be queried
// with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Put inserts or overwrites the entry for key. Values larger than
	// MaxValueSize are rejected with an error; callers that need to store
	// larger blobs must segment them above this layer.
	Put(key string, value []byte) error

	// Delete removes the entry for key. The boolean return value indicates
	// whether an entry existed.
	Delete(key string) (found bool, err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key. The boolean return value
	// indicates whether a value for the key was found. The returned slice is
	// a copy and safe for the caller to retain and modify.
	Get(key string) (value []byte, found bool, err error)

	// Has checks whether a key exists in the database.
	Has(key string) (found bool, err error)

	// --------------------------------------------------------------------------
	// Ordered Iteration
	// --------------------------------------------------------------------------

	// FirstKey returns the smallest key in the database. The boolean return
	// value is false when the database is empty.
	FirstKey() (key string, found bool, err error)

	// NextKey returns the smallest key strictly greater than after.
	// The boolean return value is false when no such key exists.
	// Stepping with NextKey is positionless: the engine holds no cursor
	// state between calls, so callers own their iteration position.
	NextKey(after string) (key string, found bool, err error)

	// --------------------------------------------------------------------------
	// Durability and Accounting
	// --------------------------------------------------------------------------

	// MaxValueSize returns the per-entry value-size ceiling in bytes.
	MaxValueSize() int

	// SpaceUsed returns the on-disk footprint of the database in bytes,
	// including any internal engine overhead.
	SpaceUsed() (uint64, error)

	// Sync forces all buffered writes to durable storage.
	Sync() error

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the
	// specified feature. Multiple features can be checked at once using the
	// bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close closes the database and releases the underlying file handle.
	// The handle is released exactly once; Close is idempotent.
	Close() (err error)
}
