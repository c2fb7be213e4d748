package dbrs

import (
	"github.com/ValentinKolb/bioKV/lib/recstore"
)

// --------------------------------------------------------------------------
// Sequence Cursor
// --------------------------------------------------------------------------

// cursorState tracks where the store's single logical cursor stands within
// the key-ordered traversal of the primary key space.
type cursorState uint8

const (
	// cursorBeforeFirst is the initial state; the next step yields the
	// first key.
	cursorBeforeFirst cursorState = iota
	// cursorPositioned means the cursor rests on a key; the next step
	// yields that key's successor.
	cursorPositioned
	// cursorExhausted means the traversal ran off the end; only a restart
	// recovers.
	cursorExhausted
)

// sequenceCursor holds the traversal position between Sequence calls. The
// position is a key, not an engine handle, so mutations between calls are
// observed naturally: the next step seeks past the remembered key in
// whatever the key space looks like then.
type sequenceCursor struct {
	state cursorState
	key   string
}

// step advances the cursor per mode and returns the key it lands on.
func (s *Store) step(mode recstore.SequenceMode) (string, error) {
	var (
		key   string
		found bool
		err   error
	)

	switch mode {
	case recstore.SequenceStart:
		key, found, err = s.primary.FirstKey()
	case recstore.SequenceNext:
		switch s.cursor.state {
		case cursorBeforeFirst:
			key, found, err = s.primary.FirstKey()
		case cursorPositioned:
			key, found, err = s.primary.NextKey(s.cursor.key)
		case cursorExhausted:
			return "", recstore.NewError(recstore.RetCExhausted,
				"sequence already exhausted, restart to traverse again")
		}
	default:
		return "", recstore.NewErrorf(recstore.RetCConfig,
			"invalid sequence mode %d", mode)
	}

	if err != nil {
		return "", recstore.NewErrorf(recstore.RetCStrategy, "advance cursor: %v", err)
	}
	if !found {
		s.cursor = sequenceCursor{state: cursorExhausted}
		return "", recstore.NewError(recstore.RetCExhausted, "no more records")
	}

	s.cursor = sequenceCursor{state: cursorPositioned, key: key}
	return key, nil
}

// Sequence advances the cursor and returns the key and data of the record it
// lands on. Keys are visited in the engine's lexicographic order.
func (s *Store) Sequence(mode recstore.SequenceMode) (string, []byte, error) {
	countOp("sequence")
	key, err := s.step(mode)
	if err != nil {
		countOpError("sequence")
		return "", nil, err
	}
	data, err := s.readRecordSegments(key)
	if err != nil {
		countOpError("sequence")
		return "", nil, err
	}
	return key, data, nil
}

// SequenceKey advances the cursor like Sequence but skips reading the record
// data; useful when only the key space is of interest.
func (s *Store) SequenceKey(mode recstore.SequenceMode) (string, error) {
	countOp("sequence_key")
	key, err := s.step(mode)
	if err != nil {
		countOpError("sequence_key")
		return "", err
	}
	return key, nil
}

// SetCursorAtKey positions the cursor on an existing key so the next
// Sequence(SequenceNext) yields that key's successor. Fails with NotFound if
// the key does not exist.
func (s *Store) SetCursorAtKey(key string) error {
	countOp("set_cursor")
	if err := s.setCursorAtKey(key); err != nil {
		countOpError("set_cursor")
		return err
	}
	return nil
}

func (s *Store) setCursorAtKey(key string) error {
	if err := recstore.ValidateKey(key); err != nil {
		return err
	}
	found, err := s.primary.Has(key)
	if err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy, "probe key %q: %v", key, err)
	}
	if !found {
		return recstore.NewErrorf(recstore.RetCNotFound, "key %q does not exist", key)
	}
	s.cursor = sequenceCursor{state: cursorPositioned, key: key}
	return nil
}
