package filers

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ValentinKolb/bioKV/lib/properties"
	"github.com/ValentinKolb/bioKV/lib/recstore"
	"github.com/rs/zerolog"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// dirSuffix derives the record directory name from the store name.
	dirSuffix = ".rsdir"

	// propertiesSuffix derives the metadata file name from the store name.
	propertiesSuffix = ".properties"

	// tempPrefix marks in-flight writes inside the record directory; such
	// files are invisible to iteration and accounting.
	tempPrefix = ".tmp-"

	propName        = "Name"
	propDescription = "Description"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures store construction.
type Options struct {
	// Logger receives structural events. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

func (o *Options) logger() zerolog.Logger {
	if o != nil && o.Logger != nil {
		return *o.Logger
	}
	return zerolog.Nop()
}

// --------------------------------------------------------------------------
// Core store structure
// --------------------------------------------------------------------------

// Store implements recstore.RecordStore with one file per record. Record
// keys are percent-escaped to form file names, so arbitrary keys map to
// valid paths and the mapping is reversible.
//
// The layout for a store NAME in parentDir:
//
//	parentDir/NAME.rsdir/      one file per record, name = url.PathEscape(key)
//	parentDir/NAME.properties  metadata (name, description)
//
// A Store is not safe for concurrent use without external mutual exclusion.
type Store struct {
	name        string
	description string
	parentDir   string
	mode        recstore.Mode
	logger      zerolog.Logger

	props  *properties.PropertiesFile
	cursor cursor
	closed bool
}

type cursorState uint8

const (
	cursorBeforeFirst cursorState = iota
	cursorPositioned
	cursorExhausted
)

type cursor struct {
	state cursorState
	key   string
}

var _ recstore.RecordStore = (*Store)(nil)

func paths(parentDir, name string) (dir, props string) {
	return filepath.Join(parentDir, name+dirSuffix),
		filepath.Join(parentDir, name+propertiesSuffix)
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

// Create creates a new flat-file store in read-write mode. Fails with
// AlreadyExists if the record directory already exists.
func Create(name, description, parentDir string, opts *Options) (*Store, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	dirPath, propsPath := paths(parentDir, name)
	if _, err := os.Stat(dirPath); err == nil {
		return nil, recstore.NewErrorf(recstore.RetCExists,
			"store %q already exists at %s", name, parentDir)
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return nil, recstore.NewErrorf(recstore.RetCStrategy,
			"create record directory %s: %v", dirPath, err)
	}

	props, err := properties.OpenFile(propsPath, recstore.ReadWrite)
	if err != nil {
		_ = os.RemoveAll(dirPath)
		return nil, err
	}
	props.Set(propName, name)
	props.Set(propDescription, description)
	if err := props.Sync(); err != nil {
		_ = os.RemoveAll(dirPath)
		return nil, err
	}

	store := &Store{
		name:        name,
		description: description,
		parentDir:   parentDir,
		mode:        recstore.ReadWrite,
		logger:      opts.logger(),
		props:       props,
	}
	store.logger.Info().
		Str("store", name).
		Str("dir", parentDir).
		Msg("flat-file record store created")
	return store, nil
}

// Open opens an existing flat-file store. Fails with NotFound if the record
// directory is missing.
func Open(name, parentDir string, mode recstore.Mode, opts *Options) (*Store, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	dirPath, propsPath := paths(parentDir, name)
	info, err := os.Stat(dirPath)
	if err != nil || !info.IsDir() {
		return nil, recstore.NewErrorf(recstore.RetCNotFound,
			"store %q does not exist at %s", name, parentDir)
	}

	props, err := properties.OpenFile(propsPath, mode)
	if err != nil {
		return nil, err
	}

	store := &Store{
		name:      name,
		parentDir: parentDir,
		mode:      mode,
		logger:    opts.logger(),
		props:     props,
	}
	store.description, _ = props.Get(propDescription)
	return store, nil
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

// Count lists the record directory; the directory is the source of truth,
// so there is no counter to drift.
func (s *Store) Count() uint64 {
	keys, err := s.listKeys()
	if err != nil {
		return 0
	}
	return uint64(len(keys))
}

func (s *Store) requireWritable(op string) error {
	if s.mode == recstore.ReadOnly {
		return recstore.NewErrorf(recstore.RetCReadOnly,
			"cannot %s: store %q is read-only", op, s.name)
	}
	return nil
}

// --------------------------------------------------------------------------
// Record file mapping
// --------------------------------------------------------------------------

func (s *Store) dirPath() string {
	dir, _ := paths(s.parentDir, s.name)
	return dir
}

func (s *Store) recordPath(key string) string {
	return filepath.Join(s.dirPath(), url.PathEscape(key))
}

func validateRecordKey(key string) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	// "." and ".." escape to themselves and would not name a file
	if key == "." || key == ".." {
		return recstore.NewErrorf(recstore.RetCConfig,
			"key %q cannot be mapped to a file name", key)
	}
	return nil
}

// listKeys returns all record keys in lexicographic order, decoded from the
// directory listing. In-flight temp files are skipped.
func (s *Store) listKeys() ([]string, error) {
	entries, err := os.ReadDir(s.dirPath())
	if err != nil {
		return nil, recstore.NewErrorf(recstore.RetCStrategy,
			"list record directory: %v", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		key, err := url.PathUnescape(name)
		if err != nil {
			return nil, recstore.NewErrorf(recstore.RetCCorruptRecord,
				"record file %q has an undecodable name: %v", name, err)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// writeRecord stages data in a temp file and renames it into place, so a
// record file is only ever observed complete.
func (s *Store) writeRecord(key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dirPath(), tempPrefix+"*")
	if err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy,
			"stage record %q: %v", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return recstore.NewErrorf(recstore.RetCStrategy,
			"write record %q: %v", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return recstore.NewErrorf(recstore.RetCStrategy,
			"write record %q: %v", key, err)
	}
	if err := os.Rename(tmpName, s.recordPath(key)); err != nil {
		_ = os.Remove(tmpName)
		return recstore.NewErrorf(recstore.RetCStrategy,
			"publish record %q: %v", key, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Record Operations
// --------------------------------------------------------------------------

func (s *Store) Insert(key string, data []byte) error {
	if err := validateRecordKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("insert"); err != nil {
		return err
	}
	if _, err := os.Stat(s.recordPath(key)); err == nil {
		return recstore.NewErrorf(recstore.RetCExists, "key %q already exists", key)
	}
	return s.writeRecord(key, data)
}

func (s *Store) Replace(key string, data []byte) error {
	if err := validateRecordKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("replace"); err != nil {
		return err
	}
	if _, err := os.Stat(s.recordPath(key)); err != nil {
		return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	return s.writeRecord(key, data)
}

func (s *Store) Read(key string) ([]byte, error) {
	if err := validateRecordKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
		}
		return nil, recstore.NewErrorf(recstore.RetCStrategy,
			"read record %q: %v", key, err)
	}
	return data, nil
}

func (s *Store) Remove(key string) error {
	if err := validateRecordKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("remove"); err != nil {
		return err
	}
	if err := os.Remove(s.recordPath(key)); err != nil {
		if os.IsNotExist(err) {
			return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
		}
		return recstore.NewErrorf(recstore.RetCStrategy,
			"remove record %q: %v", key, err)
	}
	return nil
}

func (s *Store) Length(key string) (uint64, error) {
	if err := validateRecordKey(key); err != nil {
		return 0, err
	}
	info, err := os.Stat(s.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
		}
		return 0, recstore.NewErrorf(recstore.RetCStrategy,
			"stat record %q: %v", key, err)
	}
	return uint64(info.Size()), nil
}

// --------------------------------------------------------------------------
// Sequencing
// --------------------------------------------------------------------------

// nextKey resolves the smallest key strictly greater than after, or the
// smallest key overall when after is nil, against the live directory
// listing.
func (s *Store) nextKey(after *string) (string, bool, error) {
	keys, err := s.listKeys()
	if err != nil {
		return "", false, err
	}
	for _, key := range keys {
		if after != nil && key <= *after {
			continue
		}
		return key, true, nil
	}
	return "", false, nil
}

func (s *Store) step(mode recstore.SequenceMode) (string, error) {
	var (
		key   string
		found bool
		err   error
	)

	switch mode {
	case recstore.SequenceStart:
		key, found, err = s.nextKey(nil)
	case recstore.SequenceNext:
		switch s.cursor.state {
		case cursorBeforeFirst:
			key, found, err = s.nextKey(nil)
		case cursorPositioned:
			key, found, err = s.nextKey(&s.cursor.key)
		case cursorExhausted:
			return "", recstore.NewError(recstore.RetCExhausted,
				"sequence already exhausted, restart to traverse again")
		}
	default:
		return "", recstore.NewErrorf(recstore.RetCConfig,
			"invalid sequence mode %d", mode)
	}

	if err != nil {
		return "", err
	}
	if !found {
		s.cursor = cursor{state: cursorExhausted}
		return "", recstore.NewError(recstore.RetCExhausted, "no more records")
	}
	s.cursor = cursor{state: cursorPositioned, key: key}
	return key, nil
}

func (s *Store) Sequence(mode recstore.SequenceMode) (string, []byte, error) {
	key, err := s.step(mode)
	if err != nil {
		return "", nil, err
	}
	data, err := s.Read(key)
	if err != nil {
		return "", nil, err
	}
	return key, data, nil
}

func (s *Store) SequenceKey(mode recstore.SequenceMode) (string, error) {
	return s.step(mode)
}

func (s *Store) SetCursorAtKey(key string) error {
	if err := validateRecordKey(key); err != nil {
		return err
	}
	if _, err := os.Stat(s.recordPath(key)); err != nil {
		return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	s.cursor = cursor{state: cursorPositioned, key: key}
	return nil
}

// --------------------------------------------------------------------------
// Durability and Accounting
// --------------------------------------------------------------------------

// SpaceUsed walks the record directory and sums file sizes.
func (s *Store) SpaceUsed() (uint64, error) {
	entries, err := os.ReadDir(s.dirPath())
	if err != nil {
		return 0, recstore.NewErrorf(recstore.RetCStrategy,
			"list record directory: %v", err)
	}
	var total uint64
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return 0, recstore.NewErrorf(recstore.RetCStrategy,
				"stat record file %q: %v", entry.Name(), err)
		}
		total += uint64(info.Size())
	}
	return total, nil
}

// Sync persists the metadata file. Record files are already durable once
// their rename is visible.
func (s *Store) Sync() error {
	if err := s.requireWritable("sync"); err != nil {
		return err
	}
	return s.props.Sync()
}

func (s *Store) Flush(key string) error {
	if err := validateRecordKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("flush"); err != nil {
		return err
	}
	if _, err := os.Stat(s.recordPath(key)); err != nil {
		return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	return nil
}

// --------------------------------------------------------------------------
// Rename and Lifecycle
// --------------------------------------------------------------------------

// ChangeName renames the record directory and the metadata file. If the
// second rename fails, the first is undone so the prior name remains fully
// usable.
func (s *Store) ChangeName(newName string) error {
	if err := s.requireWritable("rename"); err != nil {
		return err
	}
	if err := validateName(newName); err != nil {
		return err
	}
	if newName == s.name {
		return nil
	}

	oldDir, oldProps := paths(s.parentDir, s.name)
	newDir, newProps := paths(s.parentDir, newName)
	if _, err := os.Stat(newDir); err == nil {
		return recstore.NewErrorf(recstore.RetCExists,
			"store %q already exists at %s", newName, s.parentDir)
	}

	if err := os.Rename(oldDir, newDir); err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy,
			"rename store %q to %q: %v", s.name, newName, err)
	}
	if err := os.Rename(oldProps, newProps); err != nil {
		if undoErr := os.Rename(newDir, oldDir); undoErr != nil {
			s.logger.Error().
				Str("store", s.name).
				Err(undoErr).
				Msg("rename undo failed, store files inconsistent")
		}
		return recstore.NewErrorf(recstore.RetCStrategy,
			"rename store %q to %q: %v", s.name, newName, err)
	}

	oldName := s.name
	s.name = newName
	props, err := properties.OpenFile(newProps, s.mode)
	if err != nil {
		return err
	}
	s.props = props
	props.Set(propName, newName)
	if err := props.Sync(); err != nil {
		return err
	}

	s.logger.Info().
		Str("from", oldName).
		Str("to", newName).
		Msg("flat-file record store renamed")
	return nil
}

func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.mode == recstore.ReadWrite && s.props != nil {
		return s.props.Sync()
	}
	return nil
}
