package bolt

import (
	"fmt"
	"os"
	"time"

	"github.com/ValentinKolb/bioKV/lib/db"
	bbolt "go.etcd.io/bbolt"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// DefaultMaxValueSize is the default per-entry value-size ceiling.
	// Oversized records are segmented above this layer, so the ceiling is
	// deliberately conservative rather than bbolt's theoretical maximum.
	DefaultMaxValueSize = 65536

	// defaultFileMode is the mode used when creating the database file.
	defaultFileMode = 0600

	// defaultTimeout bounds how long an Open waits on the file lock held by
	// another process before failing.
	defaultTimeout = 5 * time.Second
)

// recordsBucket is the single bucket all entries live in.
var recordsBucket = []byte("records")

// --------------------------------------------------------------------------
// Core bolt engine structure
// --------------------------------------------------------------------------

// boltImpl implements db.KVDB on top of a single-file bbolt database.
type boltImpl struct {
	path         string
	readOnly     bool
	maxValueSize int
	handle       *bbolt.DB
}

// Options configures the bolt engine during Open.
type Options struct {
	MaxValueSize int           // Per-entry value-size ceiling (0 = DefaultMaxValueSize)
	ReadOnly     bool          // Open the file read-only; all writes fail
	Timeout      time.Duration // File-lock wait budget (0 = default: 5 sec)
}

// DefaultOptions returns the default bolt engine options.
func DefaultOptions() *Options {
	return &Options{
		MaxValueSize: DefaultMaxValueSize,
		Timeout:      defaultTimeout,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// Open opens the database file at path, creating it when it does not exist
// and the engine is opened read-write. A read-only open of a missing file
// fails. The returned engine owns the file handle until Close.
//
// Thread-safety: the returned engine is safe for concurrent use; bbolt
// serializes writers internally. Note that bbolt holds an exclusive file
// lock, so a second Open of the same path from another handle blocks and
// then fails after the configured timeout.
func Open(path string, opts *Options) (db.KVDB, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	maxValueSize := opts.MaxValueSize
	if maxValueSize == 0 {
		maxValueSize = DefaultMaxValueSize
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	handle, err := bbolt.Open(path, defaultFileMode, &bbolt.Options{
		Timeout:  timeout,
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	// The bucket must exist before any read path runs. A read-only open
	// cannot create it, but a read-only open also implies the file was
	// written (and the bucket created) by an earlier read-write open.
	if !opts.ReadOnly {
		err = handle.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(recordsBucket)
			return err
		})
		if err != nil {
			_ = handle.Close()
			return nil, fmt.Errorf("bolt: init %s: %w", path, err)
		}
	}

	return &boltImpl{
		path:         path,
		readOnly:     opts.ReadOnly,
		maxValueSize: maxValueSize,
		handle:       handle,
	}, nil
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

func (b *boltImpl) Put(key string, value []byte) error {
	if len(value) > b.maxValueSize {
		return fmt.Errorf("bolt: value for key %q exceeds ceiling (%d > %d bytes)",
			key, len(value), b.maxValueSize)
	}

	return b.handle.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).Put([]byte(key), value)
	})
}

func (b *boltImpl) Delete(key string) (bool, error) {
	var found bool
	err := b.handle.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		if bucket.Get([]byte(key)) == nil {
			return nil
		}
		found = true
		return bucket.Delete([]byte(key))
	})
	return found, err
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

func (b *boltImpl) Get(key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := b.handle.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		if bucket == nil {
			return nil
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		found = true
		// raw is only valid inside the transaction, copy out
		value = make([]byte, len(raw))
		copy(value, raw)
		return nil
	})
	return value, found, err
}

func (b *boltImpl) Has(key string) (bool, error) {
	var found bool
	err := b.handle.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		if bucket == nil {
			return nil
		}
		found = bucket.Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Ordered Iteration
// --------------------------------------------------------------------------

func (b *boltImpl) FirstKey() (string, bool, error) {
	var (
		key   string
		found bool
	)
	err := b.handle.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		if bucket == nil {
			return nil
		}
		k, _ := bucket.Cursor().First()
		if k != nil {
			key = string(k)
			found = true
		}
		return nil
	})
	return key, found, err
}

func (b *boltImpl) NextKey(after string) (string, bool, error) {
	var (
		key   string
		found bool
	)
	err := b.handle.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		if bucket == nil {
			return nil
		}
		cursor := bucket.Cursor()
		k, _ := cursor.Seek([]byte(after))
		if k != nil && string(k) == after {
			k, _ = cursor.Next()
		}
		if k != nil {
			key = string(k)
			found = true
		}
		return nil
	})
	return key, found, err
}

// --------------------------------------------------------------------------
// Durability and Accounting
// --------------------------------------------------------------------------

func (b *boltImpl) MaxValueSize() int {
	return b.maxValueSize
}

func (b *boltImpl) SpaceUsed() (uint64, error) {
	info, err := os.Stat(b.path)
	if err != nil {
		return 0, fmt.Errorf("bolt: stat %s: %w", b.path, err)
	}
	return uint64(info.Size()), nil
}

func (b *boltImpl) Sync() error {
	return b.handle.Sync()
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

func (b *boltImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeaturePut |
		db.FeatureGet |
		db.FeatureDelete |
		db.FeatureHas |
		db.FeatureIterate |
		db.FeatureSync |
		db.FeatureSpaceUsed |
		db.FeaturePersistent
	return supportedFeatures&feature == feature
}

func (b *boltImpl) GetInfo() db.DatabaseInfo {
	var entryCount int
	_ = b.handle.View(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket(recordsBucket); bucket != nil {
			entryCount = bucket.Stats().KeyN
		}
		return nil
	})

	sizeBytes := 0
	if space, err := b.SpaceUsed(); err == nil {
		sizeBytes = int(space)
	}

	meta := &struct {
		Path     string `json:"path"`
		ReadOnly bool   `json:"read_only"`
	}{
		Path:     b.path,
		ReadOnly: b.readOnly,
	}

	return db.DatabaseInfo{
		SizeBytes:    sizeBytes,
		EntryCount:   entryCount,
		MaxValueSize: b.maxValueSize,
		DbType:       db.ImplBolt,
		SupportedFeatures: []db.Feature{
			db.FeaturePut, db.FeatureGet, db.FeatureDelete, db.FeatureHas,
			db.FeatureIterate, db.FeatureSync, db.FeatureSpaceUsed,
			db.FeaturePersistent,
		},
		Metadata: meta,
	}
}

func (b *boltImpl) Close() error {
	return b.handle.Close()
}
