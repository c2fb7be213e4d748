package recstore

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/bioKV/lib/db"
)

// --------------------------------------------------------------------------
// Access Modes and Sequence Modes
// --------------------------------------------------------------------------

// Mode is the access mode of a store, fixed at open time.
type Mode uint8

const (
	// ReadWrite allows all operations.
	ReadWrite Mode = iota
	// ReadOnly rejects every mutating operation before touching the
	// backing files.
	ReadOnly
)

func (m Mode) String() string {
	switch m {
	case ReadWrite:
		return "read-write"
	case ReadOnly:
		return "read-only"
	default:
		return "unknown"
	}
}

// SequenceMode selects how a Sequence call moves the store cursor.
type SequenceMode uint8

const (
	// SequenceStart resets the cursor to the first key and returns it.
	SequenceStart SequenceMode = iota
	// SequenceNext advances from the last-returned key.
	SequenceNext
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Factory is a function type that creates the db.KVDB engine backing a store
// file. This is used to abstract the creation of the engine from the store
// implementation.
type Factory func(path string, mode Mode) (db.KVDB, error)

// RecordStore is the generic interface for a named, persistent collection
// mapping non-empty string keys to arbitrary-length byte records.
// All write operations return only an error (nil on success), while read
// operations return the requested data along with an error (nil on success).
// Failures carry a RetCode; use HasCode to branch on them.
//
// A RecordStore instance is not safe for concurrent use from multiple
// goroutines without external mutual exclusion: the cursor is shared mutable
// state, and multi-entry operations are not atomic with respect to other
// callers of the same instance.
type RecordStore interface {
	// Name returns the store's unique human-readable label.
	Name() string
	// Description returns the store's free-text description.
	Description() string
	// ChangeDescription replaces the description.
	// Fails with RetCReadOnly if the store is read-only.
	ChangeDescription(description string) error
	// Count returns the number of records in the store.
	Count() uint64

	// Insert stores data under key.
	// Fails with RetCExists if the key is present and with RetCReadOnly if
	// the store is read-only. On success, the record is fully visible to
	// subsequent reads in the same process; on failure it is fully absent
	// (best-effort rollback, see the dbrs package for the documented
	// exception).
	Insert(key string, data []byte) error
	// Replace stores data under an existing key.
	// Fails with RetCNotFound if the key is absent and with RetCReadOnly if
	// the store is read-only.
	Replace(key string, data []byte) error
	// Read returns the exact bytes last written for key.
	// Fails with RetCNotFound if the key is absent.
	Read(key string) ([]byte, error)
	// Remove releases all physical storage associated with key.
	// Fails with RetCNotFound if the key is absent and with RetCReadOnly if
	// the store is read-only.
	Remove(key string) error
	// Length returns the record length in bytes without reading the record
	// payload. Fails with RetCNotFound if the key is absent.
	Length(key string) (uint64, error)

	// Sequence moves the cursor per mode and returns the key and full
	// record data at the new position.
	// Fails with RetCExhausted when no further keys exist.
	Sequence(mode SequenceMode) (key string, data []byte, err error)
	// SequenceKey is Sequence without resolving record data; subordinate
	// storage is never touched.
	SequenceKey(mode SequenceMode) (key string, err error)
	// SetCursorAtKey positions the cursor so that the next
	// Sequence(SequenceNext) call returns the record immediately following
	// key in iteration order. It does not itself yield key.
	// Fails with RetCNotFound if the key is absent.
	SetCursorAtKey(key string) error

	// SpaceUsed returns the on-disk footprint of the store in bytes,
	// including internal engine overhead.
	SpaceUsed() (uint64, error)
	// Sync forces all buffered writes to durable storage.
	// Fails with RetCReadOnly if the store is read-only.
	Sync() error
	// Flush is a best-effort durability hint for a single record. Engines
	// without a per-key flush primitive degrade to a full Sync.
	// Fails with RetCNotFound if the key is absent and with RetCReadOnly if
	// the store is read-only.
	Flush(key string) error
	// ChangeName renames the store and all its backing files as a single
	// logical operation. Fails with RetCReadOnly if the store is read-only
	// and with RetCStrategy if a rename step fails, in which case the prior
	// name remains fully usable.
	ChangeName(newName string) error

	// Close releases the backing file handles. Close is idempotent.
	Close() error
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("RecordStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// NewErrorf creates a new Error with the given code and a formatted message.
func NewErrorf(code RetCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// HasCode reports whether err is (or wraps) an *Error carrying code.
func HasCode(err error, code RetCode) bool {
	var rsErr *Error
	if errors.As(err, &rsErr) {
		return rsErr.Code == code
	}
	return false
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess       RetCode = iota // 0: Operation executed successfully.
	RetCExists                       // 1: Key (or store) already exists.
	RetCNotFound                     // 2: Key (or store) does not exist.
	RetCReadOnly                     // 3: Mutating operation on a read-only store.
	RetCCorruptRecord                // 4: Segment count or length mismatch on reassembly.
	RetCExhausted                    // 5: Sequential iteration reached the end of the store.
	RetCConfig                       // 6: Invalid capacity, key or configuration.
	RetCStrategy                     // 7: Underlying engine or file-system failure.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCExists:
		return "AlreadyExists"
	case RetCNotFound:
		return "NotFound"
	case RetCReadOnly:
		return "ReadOnlyViolation"
	case RetCCorruptRecord:
		return "CorruptRecord"
	case RetCExhausted:
		return "IterationExhausted"
	case RetCConfig:
		return "ConfigurationError"
	case RetCStrategy:
		return "StrategyError"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Shared Helpers
// --------------------------------------------------------------------------

// ValidateKey rejects keys no store implementation accepts.
func ValidateKey(key string) error {
	if key == "" {
		return NewError(RetCConfig, "record key must not be empty")
	}
	return nil
}
