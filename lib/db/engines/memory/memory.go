package memory

import (
	"fmt"

	"github.com/ValentinKolb/bioKV/lib/db"
	"github.com/ValentinKolb/bioKV/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// DefaultMaxValueSize is the default per-entry value-size ceiling. It matches
// the bolt engine's default so that segmentation behaves identically when a
// store is staged in memory and later written to disk.
const DefaultMaxValueSize = 65536

// --------------------------------------------------------------------------
// Core memory engine structure
// --------------------------------------------------------------------------

// memoryImpl implements db.KVDB with a concurrent in-memory map.
// Data does not survive Close.
type memoryImpl struct {
	maxValueSize int
	data         *xsync.MapOf[string, []byte]
}

// Options configures the memory engine during initialization.
type Options struct {
	MaxValueSize int // Per-entry value-size ceiling (0 = DefaultMaxValueSize)
}

// DefaultOptions returns the default memory engine options.
func DefaultOptions() *Options {
	return &Options{
		MaxValueSize: DefaultMaxValueSize,
	}
}

// New creates a new empty memory engine with the specified options (optional).
//
// Thread-safety: the returned engine is safe for concurrent use; the
// underlying xsync map shards keys internally.
func New(opts *Options) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	maxValueSize := opts.MaxValueSize
	if maxValueSize == 0 {
		maxValueSize = DefaultMaxValueSize
	}

	return &memoryImpl{
		maxValueSize: maxValueSize,
		data:         xsync.NewMapOf[string, []byte](),
	}
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

func (m *memoryImpl) Put(key string, value []byte) error {
	if len(value) > m.maxValueSize {
		return fmt.Errorf("memory: value for key %q exceeds ceiling (%d > %d bytes)",
			key, len(value), m.maxValueSize)
	}

	// Copy value to prevent aliasing with caller memory
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	m.data.Store(key, valueCopy)
	return nil
}

func (m *memoryImpl) Delete(key string) (bool, error) {
	_, found := m.data.LoadAndDelete(key)
	return found, nil
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

func (m *memoryImpl) Get(key string) ([]byte, bool, error) {
	value, found := m.data.Load(key)
	if !found {
		return nil, false, nil
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, true, nil
}

func (m *memoryImpl) Has(key string) (bool, error) {
	_, found := m.data.Load(key)
	return found, nil
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Ordered Iteration
// --------------------------------------------------------------------------

// FirstKey scans for the smallest key. The map holds no order, so stepping is
// O(n) per call; acceptable for the staging and testing workloads this engine
// serves.
func (m *memoryImpl) FirstKey() (string, bool, error) {
	return m.scanAfter(nil)
}

func (m *memoryImpl) NextKey(after string) (string, bool, error) {
	return m.scanAfter(&after)
}

// scanAfter returns the smallest key greater than *after, or the smallest key
// overall when after is nil.
func (m *memoryImpl) scanAfter(after *string) (string, bool, error) {
	var (
		best  string
		found bool
	)
	m.data.Range(func(key string, _ []byte) bool {
		if after != nil && key <= *after {
			return true
		}
		if !found || key < best {
			best = key
			found = true
		}
		return true
	})
	return best, found, nil
}

// --------------------------------------------------------------------------
// Durability and Accounting
// --------------------------------------------------------------------------

func (m *memoryImpl) MaxValueSize() int {
	return m.maxValueSize
}

// SpaceUsed reports the payload bytes currently held. There is no on-disk
// footprint; callers that need durability accounting should use a persistent
// engine.
func (m *memoryImpl) SpaceUsed() (uint64, error) {
	var total uint64
	m.data.Range(func(_ string, value []byte) bool {
		total += uint64(len(value))
		return true
	})
	return total, nil
}

// Sync is a no-op; there is nothing durable to flush.
func (m *memoryImpl) Sync() error {
	return nil
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

func (m *memoryImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeaturePut |
		db.FeatureGet |
		db.FeatureDelete |
		db.FeatureHas |
		db.FeatureIterate |
		db.FeatureSync |
		db.FeatureSpaceUsed
	return supportedFeatures&feature == feature
}

func (m *memoryImpl) GetInfo() db.DatabaseInfo {
	// Sample value sizes into a histogram instead of retaining them all
	histogram := util.NewSizeHistogram()
	m.data.Range(func(_ string, value []byte) bool {
		histogram.AddSample(len(value))
		return true
	})

	meta := &struct {
		MedianValueSize int    `json:"median_value_size"`
		P95ValueSize    int    `json:"p95_value_size"`
		AvgValueSize    int    `json:"avg_value_size"`
		Info            string `json:"info"`
	}{
		MedianValueSize: histogram.MedianEstimate(),
		P95ValueSize:    histogram.GetPercentileEstimate(95),
		AvgValueSize:    histogram.AverageSize(),
		Info:            "Size statistics exclude per-entry map overhead.",
	}

	return db.DatabaseInfo{
		SizeBytes:    int(histogram.TotalBytes()),
		EntryCount:   int(histogram.GetCount()),
		MaxValueSize: m.maxValueSize,
		DbType:       db.ImplMemory,
		SupportedFeatures: []db.Feature{
			db.FeaturePut, db.FeatureGet, db.FeatureDelete, db.FeatureHas,
			db.FeatureIterate, db.FeatureSync, db.FeatureSpaceUsed,
		},
		Metadata: meta,
	}
}

// Close drops all entries. The engine must not be used afterwards.
func (m *memoryImpl) Close() error {
	m.data.Clear()
	return nil
}
