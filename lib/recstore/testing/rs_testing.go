package testing

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ValentinKolb/bioKV/lib/recstore"
)

// Factory describes how the suite obtains store instances.
type Factory struct {
	// New creates a fresh empty store in read-write mode. Cleanup is the
	// caller's responsibility (register it on t).
	New func(t *testing.T) recstore.RecordStore

	// Capacity is the per-segment payload capacity of stores created by
	// New, or 0 for implementations that do not segment. The round-trip
	// lengths are derived from it so the suite always crosses the segment
	// boundaries.
	Capacity int

	// Reopen closes the given store and reopens it in the requested mode,
	// or nil for implementations that cannot reopen (volatile stores).
	Reopen func(t *testing.T, store recstore.RecordStore, mode recstore.Mode) recstore.RecordStore
}

// roundTripLengths returns record lengths that straddle every interesting
// segmentation boundary for the factory's capacity.
func (f Factory) roundTripLengths() []int {
	capacity := f.Capacity
	if capacity <= 0 {
		capacity = 64
	}
	return []int{0, 1, capacity - 1, capacity, capacity + 1, 5 * capacity}
}

// patternBytes builds a deterministic non-repeating payload so chunk
// reordering cannot go unnoticed.
func patternBytes(length int) []byte {
	data := make([]byte, length)
	for i := range data {
		data[i] = byte(i*7 + 13)
	}
	return data
}

// RunRecordStoreTests runs the full contract suite against a store
// implementation.
func RunRecordStoreTests(t *testing.T, name string, f Factory) {
	t.Run(fmt.Sprintf("TestRecordStore(%s)", name), func(t *testing.T) {
		t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, f) })
		t.Run("Uniqueness", func(t *testing.T) { testUniqueness(t, f) })
		t.Run("Replace", func(t *testing.T) { testReplace(t, f) })
		t.Run("RemoveCompleteness", func(t *testing.T) { testRemoveCompleteness(t, f) })
		t.Run("Length", func(t *testing.T) { testLength(t, f) })
		t.Run("Iteration", func(t *testing.T) { testIteration(t, f) })
		t.Run("SetCursorAtKey", func(t *testing.T) { testSetCursorAtKey(t, f) })
		t.Run("KeyValidation", func(t *testing.T) { testKeyValidation(t, f) })
		t.Run("Count", func(t *testing.T) { testCount(t, f) })
		t.Run("Metadata", func(t *testing.T) { testMetadata(t, f) })
		t.Run("FlushAndSync", func(t *testing.T) { testFlushAndSync(t, f) })
		t.Run("ReadOnly", func(t *testing.T) { testReadOnly(t, f) })
	})
}

func testRoundTrip(t *testing.T, f Factory) {
	for _, length := range f.roundTripLengths() {
		if length < 0 {
			continue
		}
		t.Run(fmt.Sprintf("length=%d", length), func(t *testing.T) {
			store := f.New(t)
			data := patternBytes(length)
			key := "round-trip"

			if err := store.Insert(key, data); err != nil {
				t.Fatalf("insert of %d bytes failed: %v", length, err)
			}
			got, err := store.Read(key)
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("round trip of %d bytes returned %d differing bytes", length, len(got))
			}
		})
	}
}

func testUniqueness(t *testing.T, f Factory) {
	store := f.New(t)
	if err := store.Insert("key", []byte("first")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Insert("key", []byte("second")); !recstore.HasCode(err, recstore.RetCExists) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
	data, err := store.Read("key")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("duplicate insert changed the record: %q", data)
	}
}

func testReplace(t *testing.T, f Factory) {
	store := f.New(t)

	if err := store.Replace("ghost", []byte("x")); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound for replace of absent key, got %v", err)
	}

	big := patternBytes(5*f.Capacity + 1)
	if f.Capacity <= 0 {
		big = patternBytes(321)
	}
	if err := store.Insert("key", big); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Replace("key", []byte("small")); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	data, err := store.Read("key")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "small" {
		t.Errorf("expected 'small', got %q", data)
	}
	if store.Count() != 1 {
		t.Errorf("replace changed the count: %d", store.Count())
	}
}

func testRemoveCompleteness(t *testing.T, f Factory) {
	store := f.New(t)

	if err := store.Remove("ghost"); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}

	big := patternBytes(5*f.Capacity + 3)
	if f.Capacity <= 0 {
		big = patternBytes(100)
	}
	if err := store.Insert("key", big); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Remove("key"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := store.Read("key"); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound after remove, got %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("expected count 0 after remove, got %d", store.Count())
	}
	// the key is insertable again
	if err := store.Insert("key", []byte("fresh")); err != nil {
		t.Errorf("re-insert after remove failed: %v", err)
	}
}

func testLength(t *testing.T, f Factory) {
	store := f.New(t)

	if _, err := store.Length("ghost"); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
	for _, length := range f.roundTripLengths() {
		if length < 0 {
			continue
		}
		key := fmt.Sprintf("len-%d", length)
		if err := store.Insert(key, patternBytes(length)); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		got, err := store.Length(key)
		if err != nil {
			t.Fatalf("length failed: %v", err)
		}
		if got != uint64(length) {
			t.Errorf("expected length %d, got %d", length, got)
		}
	}
}

func testIteration(t *testing.T, f Factory) {
	store := f.New(t)
	keys := []string{"delta", "alpha", "charlie", "bravo"}
	for _, key := range keys {
		if err := store.Insert(key, []byte("data:"+key)); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	want := []string{"alpha", "bravo", "charlie", "delta"}
	mode := recstore.SequenceStart
	for i, wantKey := range want {
		key, data, err := store.Sequence(mode)
		if err != nil {
			t.Fatalf("sequence step %d failed: %v", i, err)
		}
		if key != wantKey {
			t.Errorf("step %d: expected key %q, got %q", i, wantKey, key)
		}
		if string(data) != "data:"+wantKey {
			t.Errorf("step %d: unexpected data %q", i, data)
		}
		mode = recstore.SequenceNext
	}

	if _, _, err := store.Sequence(recstore.SequenceNext); !recstore.HasCode(err, recstore.RetCExhausted) {
		t.Errorf("expected IterationExhausted, got %v", err)
	}
	// restart recovers
	key, err := store.SequenceKey(recstore.SequenceStart)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if key != "alpha" {
		t.Errorf("expected restart at 'alpha', got %q", key)
	}
}

func testSetCursorAtKey(t *testing.T, f Factory) {
	store := f.New(t)
	for _, key := range []string{"a", "b", "c"} {
		if err := store.Insert(key, []byte(key)); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	if err := store.SetCursorAtKey("ghost"); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}

	// positioning does not itself yield the key; the next step does
	if err := store.SetCursorAtKey("a"); err != nil {
		t.Fatalf("set cursor failed: %v", err)
	}
	key, err := store.SequenceKey(recstore.SequenceNext)
	if err != nil {
		t.Fatalf("sequence failed: %v", err)
	}
	if key != "b" {
		t.Errorf("expected 'b' after positioning at 'a', got %q", key)
	}

	if err := store.SetCursorAtKey("c"); err != nil {
		t.Fatalf("set cursor failed: %v", err)
	}
	if _, err := store.SequenceKey(recstore.SequenceNext); !recstore.HasCode(err, recstore.RetCExhausted) {
		t.Errorf("expected IterationExhausted after last key, got %v", err)
	}
}

func testKeyValidation(t *testing.T, f Factory) {
	store := f.New(t)
	if err := store.Insert("", []byte("x")); !recstore.HasCode(err, recstore.RetCConfig) {
		t.Errorf("insert: expected ConfigurationError for empty key, got %v", err)
	}
	if _, err := store.Read(""); !recstore.HasCode(err, recstore.RetCConfig) {
		t.Errorf("read: expected ConfigurationError for empty key, got %v", err)
	}
	if err := store.Remove(""); !recstore.HasCode(err, recstore.RetCConfig) {
		t.Errorf("remove: expected ConfigurationError for empty key, got %v", err)
	}
}

func testCount(t *testing.T, f Factory) {
	store := f.New(t)
	if store.Count() != 0 {
		t.Errorf("expected empty store, count %d", store.Count())
	}
	for i := 0; i < 5; i++ {
		if err := store.Insert(fmt.Sprintf("key-%d", i), []byte("x")); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if store.Count() != 5 {
		t.Errorf("expected count 5, got %d", store.Count())
	}
	if err := store.Remove("key-2"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if store.Count() != 4 {
		t.Errorf("expected count 4, got %d", store.Count())
	}
}

func testMetadata(t *testing.T, f Factory) {
	store := f.New(t)
	if store.Name() == "" {
		t.Error("expected a non-empty store name")
	}
	if err := store.ChangeDescription("updated description"); err != nil {
		t.Fatalf("change description failed: %v", err)
	}
	if store.Description() != "updated description" {
		t.Errorf("unexpected description %q", store.Description())
	}
}

func testFlushAndSync(t *testing.T, f Factory) {
	store := f.New(t)
	if err := store.Flush("ghost"); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
	if err := store.Insert("key", []byte("x")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Flush("key"); err != nil {
		t.Errorf("flush failed: %v", err)
	}
	if err := store.Sync(); err != nil {
		t.Errorf("sync failed: %v", err)
	}
	space, err := store.SpaceUsed()
	if err != nil {
		t.Errorf("space used failed: %v", err)
	}
	_ = space // implementations may report 0 for tiny or volatile stores
}

func testReadOnly(t *testing.T, f Factory) {
	if f.Reopen == nil {
		t.Skip("implementation cannot reopen stores")
	}

	store := f.New(t)
	if err := store.Insert("key", []byte("payload")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	ro := f.Reopen(t, store, recstore.ReadOnly)

	mutations := map[string]func() error{
		"insert":      func() error { return ro.Insert("other", []byte("x")) },
		"replace":     func() error { return ro.Replace("key", []byte("x")) },
		"remove":      func() error { return ro.Remove("key") },
		"sync":        func() error { return ro.Sync() },
		"flush":       func() error { return ro.Flush("key") },
		"change name": func() error { return ro.ChangeName("renamed") },
	}
	for name, mutate := range mutations {
		if err := mutate(); !recstore.HasCode(err, recstore.RetCReadOnly) {
			t.Errorf("%s: expected ReadOnlyViolation, got %v", name, err)
		}
	}

	data, err := ro.Read("key")
	if err != nil {
		t.Fatalf("read-only read failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("expected 'payload', got %q", data)
	}
	key, _, err := ro.Sequence(recstore.SequenceStart)
	if err != nil {
		t.Fatalf("read-only sequence failed: %v", err)
	}
	if key != "key" {
		t.Errorf("expected 'key', got %q", key)
	}
}
