package dbrs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/bioKV/lib/db"
	"github.com/ValentinKolb/bioKV/lib/db/engines/bolt"
	"github.com/ValentinKolb/bioKV/lib/properties"
	"github.com/ValentinKolb/bioKV/lib/recstore"
	"github.com/ValentinKolb/bioKV/lib/recstore/segment"
	"github.com/rs/zerolog"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// subordinateSuffix derives the subordinate file name from the store
	// name; the pair is always created, opened, renamed and removed together.
	subordinateSuffix = ".subordinate"

	// propertiesSuffix derives the metadata file name from the store name.
	propertiesSuffix = ".properties"

	propName        = "Name"
	propDescription = "Description"
	propCount       = "Count"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures store construction.
type Options struct {
	// Factory creates the engine behind each backing file. Defaults to the
	// bolt engine honoring MaxValueSize.
	Factory recstore.Factory
	// MaxValueSize is the per-entry ceiling handed to the default factory
	// (0 = engine default). Ignored when Factory is set.
	MaxValueSize int
	// Logger receives structural events (create, open, rename, rollback).
	// Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// DefaultOptions returns the default store options.
func DefaultOptions() *Options {
	return &Options{}
}

func (o *Options) factory() recstore.Factory {
	if o.Factory != nil {
		return o.Factory
	}
	maxValueSize := o.MaxValueSize
	return func(path string, mode recstore.Mode) (db.KVDB, error) {
		return bolt.Open(path, &bolt.Options{
			MaxValueSize: maxValueSize,
			ReadOnly:     mode == recstore.ReadOnly,
		})
	}
}

func (o *Options) logger() zerolog.Logger {
	if o.Logger != nil {
		return *o.Logger
	}
	return zerolog.Nop()
}

// --------------------------------------------------------------------------
// Core store structure
// --------------------------------------------------------------------------

// Store implements recstore.RecordStore on top of two db.KVDB engine files:
// the primary file holds the first segment of every record (prefixed with
// the reassembly header), the subordinate file holds continuation segments
// of records larger than the per-segment payload capacity.
//
// Thread-safety: a Store is not safe for concurrent use without external
// mutual exclusion; see the package documentation.
type Store struct {
	name        string
	description string
	parentDir   string
	mode        recstore.Mode
	factory     recstore.Factory
	logger      zerolog.Logger

	primary     db.KVDB
	subordinate db.KVDB
	props       *properties.PropertiesFile

	capacity int // payload bytes per segment
	count    uint64
	cursor   sequenceCursor
	closed   bool
}

var _ recstore.RecordStore = (*Store)(nil)

// paths derives the backing file paths for a store name in parentDir. The
// derivation is deterministic and reversible.
func paths(parentDir, name string) (primary, subordinate, props string) {
	primary = filepath.Join(parentDir, name)
	return primary, primary + subordinateSuffix, primary + propertiesSuffix
}

func validateName(name string) error {
	if name == "" {
		return recstore.NewError(recstore.RetCConfig, "store name must not be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return recstore.NewErrorf(recstore.RetCConfig,
			"store name %q must not contain path separators", name)
	}
	return nil
}

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

// Create creates a new store in read-write mode. It fails with AlreadyExists
// if a store of that name already exists at parentDir, and otherwise creates
// both empty backing files and persists the description.
func Create(name, description, parentDir string, opts *Options) (*Store, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	primaryPath, subordinatePath, propsPath := paths(parentDir, name)
	for _, path := range []string{primaryPath, subordinatePath} {
		if _, err := os.Stat(path); err == nil {
			return nil, recstore.NewErrorf(recstore.RetCExists,
				"store %q already exists at %s", name, parentDir)
		}
	}

	store := &Store{
		name:        name,
		description: description,
		parentDir:   parentDir,
		mode:        recstore.ReadWrite,
		factory:     opts.factory(),
		logger:      opts.logger(),
	}

	if err := store.openEngines(primaryPath, subordinatePath); err != nil {
		// a failed create must leave no trace
		_ = os.Remove(primaryPath)
		_ = os.Remove(subordinatePath)
		return nil, err
	}

	props, err := properties.OpenFile(propsPath, recstore.ReadWrite)
	if err != nil {
		store.closeEngines()
		_ = os.Remove(primaryPath)
		_ = os.Remove(subordinatePath)
		return nil, err
	}
	store.props = props
	props.Set(propName, name)
	props.Set(propDescription, description)
	props.SetUint64(propCount, 0)
	if err := props.Sync(); err != nil {
		store.closeEngines()
		_ = os.Remove(primaryPath)
		_ = os.Remove(subordinatePath)
		_ = os.Remove(propsPath)
		return nil, err
	}

	store.logger.Info().
		Str("store", name).
		Str("dir", parentDir).
		Int("capacity", store.capacity).
		Msg("record store created")
	return store, nil
}

// Open opens an existing store. It fails with NotFound if either backing
// file is missing and with StrategyError on any engine-level open failure.
func Open(name, parentDir string, mode recstore.Mode, opts *Options) (*Store, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	primaryPath, subordinatePath, propsPath := paths(parentDir, name)
	for _, path := range []string{primaryPath, subordinatePath} {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, recstore.NewErrorf(recstore.RetCNotFound,
					"store %q does not exist at %s (missing %s)", name, parentDir, path)
			}
			return nil, recstore.NewErrorf(recstore.RetCStrategy,
				"stat store file %s: %v", path, err)
		}
	}

	store := &Store{
		name:      name,
		parentDir: parentDir,
		mode:      mode,
		factory:   opts.factory(),
		logger:    opts.logger(),
	}

	if err := store.openEngines(primaryPath, subordinatePath); err != nil {
		return nil, err
	}

	props, err := properties.OpenFile(propsPath, mode)
	if err != nil {
		store.closeEngines()
		return nil, err
	}
	store.props = props
	store.description, _ = props.Get(propDescription)
	if count, err := props.GetUint64(propCount); err == nil {
		store.count = count
	} else {
		// metadata lost or predates count tracking, recount from the
		// primary key space
		count, err := store.recount()
		if err != nil {
			store.closeEngines()
			return nil, err
		}
		store.count = count
	}

	store.logger.Debug().
		Str("store", name).
		Str("mode", mode.String()).
		Uint64("count", store.count).
		Msg("record store opened")
	return store, nil
}

// openEngines acquires both engine handles and derives the segment payload
// capacity. On failure no handle stays open.
func (s *Store) openEngines(primaryPath, subordinatePath string) error {
	primary, err := s.factory(primaryPath, s.mode)
	if err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy,
			"open primary engine %s: %v", primaryPath, err)
	}
	subordinate, err := s.factory(subordinatePath, s.mode)
	if err != nil {
		_ = primary.Close()
		return recstore.NewErrorf(recstore.RetCStrategy,
			"open subordinate engine %s: %v", subordinatePath, err)
	}

	ceiling := primary.MaxValueSize()
	if sub := subordinate.MaxValueSize(); sub < ceiling {
		ceiling = sub
	}
	capacity, err := segment.PayloadCapacity(ceiling)
	if err != nil {
		_ = primary.Close()
		_ = subordinate.Close()
		return err
	}

	s.primary = primary
	s.subordinate = subordinate
	s.capacity = capacity
	return nil
}

func (s *Store) closeEngines() {
	if s.primary != nil {
		_ = s.primary.Close()
		s.primary = nil
	}
	if s.subordinate != nil {
		_ = s.subordinate.Close()
		s.subordinate = nil
	}
}

// recount walks the primary key space and counts records.
func (s *Store) recount() (uint64, error) {
	var count uint64
	key, found, err := s.primary.FirstKey()
	for found {
		if err != nil {
			break
		}
		count++
		key, found, err = s.primary.NextKey(key)
	}
	if err != nil {
		return 0, recstore.NewErrorf(recstore.RetCStrategy, "recount records: %v", err)
	}
	return count, nil
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

func (s *Store) Name() string {
	return s.name
}

func (s *Store) Description() string {
	return s.description
}

func (s *Store) ChangeDescription(description string) error {
	if err := s.requireWritable("change description"); err != nil {
		return err
	}
	s.description = description
	s.props.Set(propDescription, description)
	return s.props.Sync()
}

func (s *Store) Count() uint64 {
	return s.count
}

// Capacity returns the payload bytes per segment this store splits records
// at.
func (s *Store) Capacity() int {
	return s.capacity
}

// EngineInfo exposes the diagnostic metadata of both backing engines.
func (s *Store) EngineInfo() (primary, subordinate db.DatabaseInfo) {
	return s.primary.GetInfo(), s.subordinate.GetInfo()
}

// requireWritable fails fast with ReadOnlyViolation before any engine call.
func (s *Store) requireWritable(op string) error {
	if s.mode == recstore.ReadOnly {
		return recstore.NewErrorf(recstore.RetCReadOnly,
			"cannot %s: store %q is read-only", op, s.name)
	}
	return nil
}

// isReservedKey reports whether key collides with the subordinate key
// derivation (trailing "&<digits>"); such keys are rejected so a record key
// can never alias another record's continuation segments.
func isReservedKey(key string) bool {
	idx := strings.LastIndex(key, segment.KeySeparator)
	if idx < 0 || idx+1 == len(key) {
		return false
	}
	for _, r := range key[idx+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Store) validateRecordKey(key string) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	if isReservedKey(key) {
		return recstore.NewErrorf(recstore.RetCConfig,
			"key %q is reserved for subordinate segments", key)
	}
	return nil
}

// --------------------------------------------------------------------------
// Record Operations
// --------------------------------------------------------------------------

func (s *Store) Insert(key string, data []byte) error {
	countOp("insert")
	if err := s.insert(key, data); err != nil {
		countOpError("insert")
		return err
	}
	return nil
}

func (s *Store) insert(key string, data []byte) error {
	if err := s.validateRecordKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("insert"); err != nil {
		return err
	}

	found, err := s.primary.Has(key)
	if err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy, "probe key %q: %v", key, err)
	}
	if found {
		return recstore.NewErrorf(recstore.RetCExists, "key %q already exists", key)
	}

	if err := s.insertRecordSegments(key, data); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *Store) Replace(key string, data []byte) error {
	countOp("replace")
	if err := s.replace(key, data); err != nil {
		countOpError("replace")
		return err
	}
	return nil
}

func (s *Store) replace(key string, data []byte) error {
	if err := s.validateRecordKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("replace"); err != nil {
		return err
	}

	// Keep the old record in hand so a failed re-insert can be rolled back.
	old, err := s.readRecordSegments(key)
	if err != nil {
		return err
	}

	if err := s.removeRecordSegments(key); err != nil {
		return err
	}
	if err := s.insertRecordSegments(key, data); err != nil {
		// restore the previous value
		if restoreErr := s.insertRecordSegments(key, old); restoreErr != nil {
			s.logger.Error().
				Str("store", s.name).
				Str("key", key).
				Err(restoreErr).
				Msg("replace rollback failed, record lost")
			return recstore.NewErrorf(recstore.RetCStrategy,
				"replace key %q failed and rollback failed, record lost: %v (rollback: %v)",
				key, err, restoreErr)
		}
		return err
	}
	return nil
}

func (s *Store) Read(key string) ([]byte, error) {
	countOp("read")
	data, err := s.read(key)
	if err != nil {
		countOpError("read")
		return nil, err
	}
	return data, nil
}

func (s *Store) read(key string) ([]byte, error) {
	if err := recstore.ValidateKey(key); err != nil {
		return nil, err
	}
	return s.readRecordSegments(key)
}

func (s *Store) Remove(key string) error {
	countOp("remove")
	if err := s.remove(key); err != nil {
		countOpError("remove")
		return err
	}
	return nil
}

func (s *Store) remove(key string) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("remove"); err != nil {
		return err
	}

	if err := s.removeRecordSegments(key); err != nil {
		return err
	}
	if s.count > 0 {
		s.count--
	}
	return nil
}

func (s *Store) Length(key string) (uint64, error) {
	countOp("length")
	if err := recstore.ValidateKey(key); err != nil {
		countOpError("length")
		return 0, err
	}

	header, err := s.readPrimaryHeader(key)
	if err != nil {
		countOpError("length")
		return 0, err
	}
	return header.TotalLength, nil
}

// --------------------------------------------------------------------------
// Durability and Accounting
// --------------------------------------------------------------------------

func (s *Store) SpaceUsed() (uint64, error) {
	primarySpace, err := s.primary.SpaceUsed()
	if err != nil {
		return 0, recstore.NewErrorf(recstore.RetCStrategy, "primary space: %v", err)
	}
	subordinateSpace, err := s.subordinate.SpaceUsed()
	if err != nil {
		return 0, recstore.NewErrorf(recstore.RetCStrategy, "subordinate space: %v", err)
	}
	return primarySpace + subordinateSpace, nil
}

func (s *Store) Sync() error {
	countOp("sync")
	if err := s.sync(); err != nil {
		countOpError("sync")
		return err
	}
	return nil
}

func (s *Store) sync() error {
	if err := s.requireWritable("sync"); err != nil {
		return err
	}

	s.props.SetUint64(propCount, s.count)
	if err := s.props.Sync(); err != nil {
		return err
	}
	if err := s.primary.Sync(); err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy, "sync primary: %v", err)
	}
	if err := s.subordinate.Sync(); err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy, "sync subordinate: %v", err)
	}
	return nil
}

// Flush is a per-record durability hint. The engines have no per-key flush
// primitive, so this degrades to a full Sync after the key is verified.
func (s *Store) Flush(key string) error {
	countOp("flush")
	if err := s.flush(key); err != nil {
		countOpError("flush")
		return err
	}
	return nil
}

func (s *Store) flush(key string) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("flush"); err != nil {
		return err
	}

	found, err := s.primary.Has(key)
	if err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy, "probe key %q: %v", key, err)
	}
	if !found {
		return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	return s.sync()
}

// --------------------------------------------------------------------------
// Rename
// --------------------------------------------------------------------------

// ChangeName renames both backing files (and the metadata file) as a single
// logical operation. If any rename step fails, all completed steps are
// undone so the prior name remains fully usable; the failure surfaces as
// StrategyError.
func (s *Store) ChangeName(newName string) error {
	countOp("change_name")
	if err := s.changeName(newName); err != nil {
		countOpError("change_name")
		return err
	}
	return nil
}

func (s *Store) changeName(newName string) error {
	if err := s.requireWritable("rename"); err != nil {
		return err
	}
	if err := validateName(newName); err != nil {
		return err
	}
	if newName == s.name {
		return nil
	}

	oldPrimary, oldSubordinate, _ := paths(s.parentDir, s.name)
	newPrimary, newSubordinate, newProps := paths(s.parentDir, newName)
	for _, path := range []string{newPrimary, newSubordinate} {
		if _, err := os.Stat(path); err == nil {
			return recstore.NewErrorf(recstore.RetCExists,
				"store %q already exists at %s", newName, s.parentDir)
		}
	}

	// The engines hold open handles on the files being renamed; release
	// them for the duration of the move.
	s.closeEngines()

	renames := [][2]string{
		{oldPrimary, newPrimary},
		{oldSubordinate, newSubordinate},
	}
	done := 0
	var renameErr error
	for _, pair := range renames {
		if err := os.Rename(pair[0], pair[1]); err != nil {
			renameErr = err
			break
		}
		done++
	}
	if renameErr == nil {
		// The metadata handle moves its own file and stays usable either way.
		renameErr = s.props.ChangeName(newProps)
	}
	if renameErr != nil {
		// undo completed renames, newest first
		for i := done - 1; i >= 0; i-- {
			if err := os.Rename(renames[i][1], renames[i][0]); err != nil {
				s.logger.Error().
					Str("store", s.name).
					Str("from", renames[i][1]).
					Str("to", renames[i][0]).
					Err(err).
					Msg("rename undo failed, store files inconsistent")
			}
		}
		if err := s.openEngines(oldPrimary, oldSubordinate); err != nil {
			return err
		}
		return recstore.NewErrorf(recstore.RetCStrategy,
			"rename store %q to %q: %v", s.name, newName, renameErr)
	}

	if err := s.openEngines(newPrimary, newSubordinate); err != nil {
		return err
	}

	oldName := s.name
	s.name = newName
	s.props.Set(propName, newName)
	if err := s.props.Sync(); err != nil {
		return err
	}

	s.logger.Info().
		Str("from", oldName).
		Str("to", newName).
		Msg("record store renamed")
	return nil
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.mode == recstore.ReadWrite && s.props != nil {
		s.props.SetUint64(propCount, s.count)
		if err := s.props.Sync(); err != nil {
			s.closeEngines()
			return err
		}
	}
	s.closeEngines()
	return nil
}

// --------------------------------------------------------------------------
// Segment Plumbing
// --------------------------------------------------------------------------

// readPrimaryHeader fetches and decodes only the primary entry's header.
func (s *Store) readPrimaryHeader(key string) (segment.Header, error) {
	primary, found, err := s.primary.Get(key)
	if err != nil {
		return segment.Header{}, recstore.NewErrorf(recstore.RetCStrategy,
			"read primary entry %q: %v", key, err)
	}
	if !found {
		return segment.Header{}, recstore.NewErrorf(recstore.RetCNotFound,
			"key %q does not exist", key)
	}
	header, _, err := segment.DecodeHeader(primary)
	if err != nil {
		return segment.Header{}, err
	}
	if err := s.checkHeader(key, header); err != nil {
		return segment.Header{}, err
	}
	return header, nil
}

// checkHeader cross-checks a decoded primary header against the store's
// segment capacity. A mangled header could otherwise declare an arbitrary
// segment count and drive allocation and deletion loops far past the record.
func (s *Store) checkHeader(key string, header segment.Header) error {
	if expected := segment.Count(header.TotalLength, s.capacity); header.SegmentCount != expected {
		return recstore.NewErrorf(recstore.RetCCorruptRecord,
			"primary header of %q declares %d segments for %d bytes, expected %d",
			key, header.SegmentCount, header.TotalLength, expected)
	}
	return nil
}

// insertRecordSegments writes the primary entry, then subordinate entries in
// increasing index order. If a write fails partway, every entry already
// written for the key is deleted again (best-effort); a rollback failure
// leaves the leftover state discoverable and is reported in the returned
// StrategyError.
func (s *Store) insertRecordSegments(key string, data []byte) error {
	primary, subordinates, err := segment.Split(data, s.capacity)
	if err != nil {
		return err
	}

	if err := s.primary.Put(key, primary); err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy,
			"write primary entry %q: %v", key, err)
	}

	for i, chunk := range subordinates {
		index := uint64(i + 1)
		if err := s.subordinate.Put(segment.SubordinateKey(key, index), chunk); err != nil {
			rollbackErr := s.rollbackSegments(key, index)
			if rollbackErr != nil {
				return recstore.NewErrorf(recstore.RetCStrategy,
					"write segment %d of key %q: %v (rollback incomplete: %v)",
					index, key, err, rollbackErr)
			}
			return recstore.NewErrorf(recstore.RetCStrategy,
				"write segment %d of key %q: %v (rolled back)", index, key, err)
		}
	}
	return nil
}

// rollbackSegments deletes subordinate entries 1..writtenBelow-1 and the
// primary entry after a failed multi-segment insert.
func (s *Store) rollbackSegments(key string, writtenBelow uint64) error {
	var firstErr error
	for index := uint64(1); index < writtenBelow; index++ {
		if _, err := s.subordinate.Delete(segment.SubordinateKey(key, index)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if _, err := s.primary.Delete(key); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		s.logger.Error().
			Str("store", s.name).
			Str("key", key).
			Err(firstErr).
			Msg("segment rollback incomplete, orphaned segments left for inspection")
	}
	return firstErr
}

// readRecordSegments reads the primary entry and, for multi-segment records,
// the subordinate entries in index order, and reassembles the record.
func (s *Store) readRecordSegments(key string) ([]byte, error) {
	primary, found, err := s.primary.Get(key)
	if err != nil {
		return nil, recstore.NewErrorf(recstore.RetCStrategy,
			"read primary entry %q: %v", key, err)
	}
	if !found {
		return nil, recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}

	header, payload, err := segment.DecodeHeader(primary)
	if err != nil {
		return nil, err
	}
	if err := s.checkHeader(key, header); err != nil {
		return nil, err
	}
	if header.SegmentCount == 1 {
		// single segment, the primary payload is the whole record
		if uint64(len(payload)) != header.TotalLength {
			return nil, recstore.NewErrorf(recstore.RetCCorruptRecord,
				"primary payload of %q is %d bytes, header declares %d",
				key, len(payload), header.TotalLength)
		}
		return payload, nil
	}

	subordinates := make([][]byte, 0, header.SegmentCount-1)
	for index := uint64(1); index < header.SegmentCount; index++ {
		chunk, found, err := s.subordinate.Get(segment.SubordinateKey(key, index))
		if err != nil {
			return nil, recstore.NewErrorf(recstore.RetCStrategy,
				"read segment %d of key %q: %v", index, key, err)
		}
		if !found {
			return nil, recstore.NewErrorf(recstore.RetCCorruptRecord,
				"segment %d of key %q is missing", index, key)
		}
		subordinates = append(subordinates, chunk)
	}

	return segment.Reassemble(primary, subordinates)
}

// removeRecordSegments deletes subordinate entries first and the primary
// entry last, so a failure mid-removal leaves the record fully readable and
// the removal retryable.
func (s *Store) removeRecordSegments(key string) error {
	header, err := s.readPrimaryHeader(key)
	if err != nil {
		return err
	}

	for index := uint64(1); index < header.SegmentCount; index++ {
		subKey := segment.SubordinateKey(key, index)
		found, err := s.subordinate.Delete(subKey)
		if err != nil {
			return recstore.NewErrorf(recstore.RetCStrategy,
				"delete segment %d of key %q: %v", index, key, err)
		}
		if !found {
			// already gone; note it and keep releasing the rest
			s.logger.Warn().
				Str("store", s.name).
				Str("key", key).
				Uint64("segment", index).
				Msg("expected subordinate segment missing during remove")
		}
	}

	if _, err := s.primary.Delete(key); err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy,
			"delete primary entry %q: %v", key, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

func countOp(op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`biokv_store_ops_total{op=%q}`, op)).Inc()
}

func countOpError(op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`biokv_store_op_errors_total{op=%q}`, op)).Inc()
}
