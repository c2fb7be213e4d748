package memrs

import (
	"github.com/ValentinKolb/bioKV/lib/recstore"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Core store structure
// --------------------------------------------------------------------------

// Store implements recstore.RecordStore entirely in memory. Records live in
// a concurrent map and vanish on Close; there is no segmentation because
// there is no per-entry value ceiling.
//
// The map tolerates concurrent access, but the cursor is shared mutable
// state like in every other implementation, so a Store is still not safe
// for concurrent use without external mutual exclusion.
type Store struct {
	name        string
	description string
	mode        recstore.Mode

	data   *xsync.MapOf[string, []byte]
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

// New creates an empty in-memory store in read-write mode.
func New(name, description string) *Store {
	return &Store{
		name:        name,
		description: description,
		mode:        recstore.ReadWrite,
		data:        xsync.NewMapOf[string, []byte](),
	}
}

// ReadOnlyView returns a read-only store sharing this store's records. The
// view has its own cursor and name; writes through the original remain
// visible to the view.
func (s *Store) ReadOnlyView() *Store {
	return &Store{
		name:        s.name,
		description: s.description,
		mode:        recstore.ReadOnly,
		data:        s.data,
	}
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
	return nil
}

func (s *Store) Count() uint64 {
	return uint64(s.data.Size())
}

func (s *Store) requireWritable(op string) error {
	if s.mode == recstore.ReadOnly {
		return recstore.NewErrorf(recstore.RetCReadOnly,
			"cannot %s: store %q is read-only", op, s.name)
	}
	return nil
}

// --------------------------------------------------------------------------
// Record Operations
// --------------------------------------------------------------------------

func (s *Store) Insert(key string, data []byte) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("insert"); err != nil {
		return err
	}
	if _, found := s.data.Load(key); found {
		return recstore.NewErrorf(recstore.RetCExists, "key %q already exists", key)
	}
	s.data.Store(key, cloneBytes(data))
	return nil
}

func (s *Store) Replace(key string, data []byte) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("replace"); err != nil {
		return err
	}
	if _, found := s.data.Load(key); !found {
		return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	s.data.Store(key, cloneBytes(data))
	return nil
}

func (s *Store) Read(key string) ([]byte, error) {
	if err := recstore.ValidateKey(key); err != nil {
		return nil, err
	}
	data, found := s.data.Load(key)
	if !found {
		return nil, recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	return cloneBytes(data), nil
}

func (s *Store) Remove(key string) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("remove"); err != nil {
		return err
	}
	if _, found := s.data.LoadAndDelete(key); !found {
		return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	return nil
}

func (s *Store) Length(key string) (uint64, error) {
	if err := recstore.ValidateKey(key); err != nil {
		return 0, err
	}
	data, found := s.data.Load(key)
	if !found {
		return 0, recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	return uint64(len(data)), nil
}

// --------------------------------------------------------------------------
// Sequencing
// --------------------------------------------------------------------------

// scanAfter returns the smallest key strictly greater than *after, or the
// smallest key overall when after is nil. O(n) per step, same trade-off as
// the memory engine.
func (s *Store) scanAfter(after *string) (string, bool) {
	var (
		best  string
		found bool
	)
	s.data.Range(func(key string, _ []byte) bool {
		if after != nil && key <= *after {
			return true
		}
		if !found || key < best {
			best = key
			found = true
		}
		return true
	})
	return best, found
}

func (s *Store) step(mode recstore.SequenceMode) (string, error) {
	var (
		key   string
		found bool
	)

	switch mode {
	case recstore.SequenceStart:
		key, found = s.scanAfter(nil)
	case recstore.SequenceNext:
		switch s.cursor.state {
		case cursorBeforeFirst:
			key, found = s.scanAfter(nil)
		case cursorPositioned:
			key, found = s.scanAfter(&s.cursor.key)
		case cursorExhausted:
			return "", recstore.NewError(recstore.RetCExhausted,
				"sequence already exhausted, restart to traverse again")
		}
	default:
		return "", recstore.NewErrorf(recstore.RetCConfig,
			"invalid sequence mode %d", mode)
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
	data, found := s.data.Load(key)
	if !found {
		// removed between the scan and the load
		return "", nil, recstore.NewErrorf(recstore.RetCNotFound,
			"key %q vanished during traversal", key)
	}
	return key, cloneBytes(data), nil
}

func (s *Store) SequenceKey(mode recstore.SequenceMode) (string, error) {
	return s.step(mode)
}

func (s *Store) SetCursorAtKey(key string) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	if _, found := s.data.Load(key); !found {
		return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	s.cursor = cursor{state: cursorPositioned, key: key}
	return nil
}

// --------------------------------------------------------------------------
// Durability and Lifecycle
// --------------------------------------------------------------------------

// SpaceUsed reports the payload bytes held; there is no on-disk footprint.
func (s *Store) SpaceUsed() (uint64, error) {
	var total uint64
	s.data.Range(func(_ string, data []byte) bool {
		total += uint64(len(data))
		return true
	})
	return total, nil
}

// Sync is gated like every mutating operation but has nothing to persist.
func (s *Store) Sync() error {
	return s.requireWritable("sync")
}

func (s *Store) Flush(key string) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	if err := s.requireWritable("flush"); err != nil {
		return err
	}
	if _, found := s.data.Load(key); !found {
		return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	return nil
}

// ChangeName relabels the store; there are no files to move.
func (s *Store) ChangeName(newName string) error {
	if err := s.requireWritable("rename"); err != nil {
		return err
	}
	if newName == "" {
		return recstore.NewError(recstore.RetCConfig, "store name must not be empty")
	}
	s.name = newName
	return nil
}

// Close drops all records. Close is idempotent.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.data.Clear()
	return nil
}

func cloneBytes(data []byte) []byte {
	clone := make([]byte, len(data))
	copy(clone, data)
	return clone
}
