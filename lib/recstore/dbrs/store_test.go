package dbrs

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/ValentinKolb/bioKV/lib/db"
	"github.com/ValentinKolb/bioKV/lib/recstore"
	"github.com/ValentinKolb/bioKV/lib/recstore/segment"
)

// newTestStore creates a store in a fresh temp dir with the given engine
// value ceiling and registers cleanup.
func newTestStore(t *testing.T, maxValueSize int) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := Create("test-store", "test store", dir, &Options{MaxValueSize: maxValueSize})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, dir
}

// countKeys walks an engine's whole key space.
func countKeys(t *testing.T, engine db.KVDB) int {
	t.Helper()
	count := 0
	key, found, err := engine.FirstKey()
	for found {
		if err != nil {
			t.Fatalf("iteration failed: %v", err)
		}
		count++
		key, found, err = engine.NextKey(key)
	}
	return count
}

func TestCreateOpenLifecycle(t *testing.T) {
	dir := t.TempDir()

	store, err := Create("people", "enrollment records", dir, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if store.Name() != "people" {
		t.Errorf("expected name 'people', got %q", store.Name())
	}
	if store.Description() != "enrollment records" {
		t.Errorf("unexpected description %q", store.Description())
	}
	if err := store.Insert("A", []byte("payload")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// Close must be idempotent
	if err := store.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}

	reopened, err := Open("people", dir, recstore.ReadWrite, nil)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	if reopened.Count() != 1 {
		t.Errorf("expected count 1 after reopen, got %d", reopened.Count())
	}
	data, err := reopened.Read("A")
	if err != nil {
		t.Fatalf("read after reopen failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("expected 'payload', got %q", data)
	}
}

func TestCreateAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	store, err := Create("dup", "", dir, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := Create("dup", "", dir, nil); !recstore.HasCode(err, recstore.RetCExists) {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open("absent", t.TempDir(), recstore.ReadWrite, nil); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

// TestOpenStatFailure points Open at a parent "directory" that is a regular
// file. The stat fails with something other than not-exist and must not be
// misreported as a missing store.
func TestOpenStatFailure(t *testing.T) {
	flat, err := os.CreateTemp(t.TempDir(), "flat")
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := flat.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	_, err = Open("store", flat.Name(), recstore.ReadWrite, nil)
	if recstore.HasCode(err, recstore.RetCNotFound) {
		t.Fatalf("stat failure misreported as NotFound: %v", err)
	}
	if !recstore.HasCode(err, recstore.RetCStrategy) {
		t.Errorf("expected StrategyError, got %v", err)
	}
}

// TestSegmentationScenario exercises the full segmentation round trip at a
// payload capacity of 8 bytes: a 20-byte record must occupy three segments
// (8+8+4) spread over both engine files, and removal must release all of
// them.
func TestSegmentationScenario(t *testing.T) {
	store, _ := newTestStore(t, 8+segment.HeaderSize)
	if store.Capacity() != 8 {
		t.Fatalf("expected payload capacity 8, got %d", store.Capacity())
	}

	record := []byte("0123456789ABCDEFGHIJ")
	if err := store.Insert("A", record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// 3 segments: primary entry plus subordinates A&1 and A&2
	if found, _ := store.primary.Has("A"); !found {
		t.Error("primary entry missing")
	}
	for _, subKey := range []string{"A&1", "A&2"} {
		if found, _ := store.subordinate.Has(subKey); !found {
			t.Errorf("subordinate entry %q missing", subKey)
		}
	}
	if found, _ := store.subordinate.Has("A&3"); found {
		t.Error("unexpected subordinate entry A&3")
	}

	length, err := store.Length("A")
	if err != nil {
		t.Fatalf("length failed: %v", err)
	}
	if length != 20 {
		t.Errorf("expected length 20, got %d", length)
	}

	data, err := store.Read("A")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(data, record) {
		t.Errorf("round trip mismatch: got %q", data)
	}

	if err := store.Remove("A"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if n := countKeys(t, store.primary); n != 0 {
		t.Errorf("expected empty primary engine, %d entries remain", n)
	}
	if n := countKeys(t, store.subordinate); n != 0 {
		t.Errorf("expected empty subordinate engine, %d entries remain", n)
	}
	if _, err := store.Read("A"); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound after remove, got %v", err)
	}
	if _, _, err := store.Sequence(recstore.SequenceStart); !recstore.HasCode(err, recstore.RetCExhausted) {
		t.Errorf("expected IterationExhausted on empty store, got %v", err)
	}
}

func TestSegmentAccounting(t *testing.T) {
	tests := []struct {
		length           int
		wantSubordinates int
	}{
		{0, 0},
		{1, 0},
		{7, 0},
		{8, 0},
		{9, 1},
		{16, 1},
		{17, 2},
		{40, 4},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("length=%d", tc.length), func(t *testing.T) {
			store, _ := newTestStore(t, 8+segment.HeaderSize)
			data := bytes.Repeat([]byte{0x5a}, tc.length)
			if err := store.Insert("rec", data); err != nil {
				t.Fatalf("insert failed: %v", err)
			}
			if n := countKeys(t, store.subordinate); n != tc.wantSubordinates {
				t.Errorf("expected %d subordinate entries, got %d", tc.wantSubordinates, n)
			}
			got, err := store.Read("rec")
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("round trip mismatch at length %d", tc.length)
			}
		})
	}
}

// TestCorruptHeaderRejected plants a primary entry whose header declares a
// segment count far beyond what its declared length can occupy. Every
// header-driven operation must reject it as corrupt instead of chasing the
// bogus count.
func TestCorruptHeaderRejected(t *testing.T) {
	store, _ := newTestStore(t, 8+segment.HeaderSize)

	entry := make([]byte, segment.HeaderSize+8)
	segment.EncodeHeader(entry, segment.Header{TotalLength: 8, SegmentCount: 1 << 60})
	if err := store.primary.Put("mangled", entry); err != nil {
		t.Fatalf("engine put failed: %v", err)
	}

	if _, err := store.Read("mangled"); !recstore.HasCode(err, recstore.RetCCorruptRecord) {
		t.Errorf("expected CorruptRecord from Read, got %v", err)
	}
	if _, err := store.Length("mangled"); !recstore.HasCode(err, recstore.RetCCorruptRecord) {
		t.Errorf("expected CorruptRecord from Length, got %v", err)
	}
	if err := store.Remove("mangled"); !recstore.HasCode(err, recstore.RetCCorruptRecord) {
		t.Errorf("expected CorruptRecord from Remove, got %v", err)
	}

	// the entry must still be in place for offline inspection
	if found, _ := store.primary.Has("mangled"); !found {
		t.Error("corrupt primary entry was deleted")
	}
}

func TestInsertDuplicate(t *testing.T) {
	store, _ := newTestStore(t, 0)
	if err := store.Insert("key", []byte("original")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Insert("key", []byte("clobbered")); !recstore.HasCode(err, recstore.RetCExists) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}

	// the prior value must be untouched
	data, err := store.Read("key")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("duplicate insert changed the record: %q", data)
	}
	if store.Count() != 1 {
		t.Errorf("expected count 1, got %d", store.Count())
	}
}

func TestReplace(t *testing.T) {
	store, _ := newTestStore(t, 8+segment.HeaderSize)

	if err := store.Replace("ghost", []byte("x")); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound for replace of absent key, got %v", err)
	}

	// replacing a multi-segment record with a short one must release the
	// continuation segments
	if err := store.Insert("rec", bytes.Repeat([]byte{1}, 20)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Replace("rec", []byte("tiny")); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if n := countKeys(t, store.subordinate); n != 0 {
		t.Errorf("expected no subordinate entries after shrink, got %d", n)
	}
	data, err := store.Read("rec")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "tiny" {
		t.Errorf("expected 'tiny', got %q", data)
	}
	if store.Count() != 1 {
		t.Errorf("replace changed the count: %d", store.Count())
	}
}

func TestRemoveNotFound(t *testing.T) {
	store, _ := newTestStore(t, 0)
	if err := store.Remove("ghost"); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	store, _ := newTestStore(t, 0)
	if err := store.Insert("", []byte("x")); !recstore.HasCode(err, recstore.RetCConfig) {
		t.Errorf("expected ConfigurationError for empty key, got %v", err)
	}
	if _, err := store.Read(""); !recstore.HasCode(err, recstore.RetCConfig) {
		t.Errorf("expected ConfigurationError for empty key read, got %v", err)
	}
}

func TestReservedKeysRejected(t *testing.T) {
	store, _ := newTestStore(t, 0)

	for _, key := range []string{"A&1", "fingerprint&42", "&7"} {
		if err := store.Insert(key, []byte("x")); !recstore.HasCode(err, recstore.RetCConfig) {
			t.Errorf("expected ConfigurationError for reserved key %q, got %v", key, err)
		}
	}
	// a trailing separator or non-numeric suffix is an ordinary key
	for _, key := range []string{"A&", "A&x", "a&b&c&"} {
		if err := store.Insert(key, []byte("x")); err != nil {
			t.Errorf("unexpected rejection of key %q: %v", key, err)
		}
	}
}

func TestReadOnly(t *testing.T) {
	dir := t.TempDir()
	store, err := Create("frozen", "", dir, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Insert("A", []byte("payload")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	primaryPath, subordinatePath, _ := paths(dir, "frozen")
	before := map[string][]byte{}
	for _, path := range []string{primaryPath, subordinatePath} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read %s: %v", path, err)
		}
		before[path] = data
	}

	ro, err := Open("frozen", dir, recstore.ReadOnly, nil)
	if err != nil {
		t.Fatalf("failed to open read-only: %v", err)
	}

	mutations := map[string]func() error{
		"insert":             func() error { return ro.Insert("B", []byte("x")) },
		"replace":            func() error { return ro.Replace("A", []byte("x")) },
		"remove":             func() error { return ro.Remove("A") },
		"sync":               func() error { return ro.Sync() },
		"flush":              func() error { return ro.Flush("A") },
		"change name":        func() error { return ro.ChangeName("thawed") },
		"change description": func() error { return ro.ChangeDescription("x") },
	}
	for name, mutate := range mutations {
		if err := mutate(); !recstore.HasCode(err, recstore.RetCReadOnly) {
			t.Errorf("%s: expected ReadOnlyViolation, got %v", name, err)
		}
	}

	// reads must still work
	data, err := ro.Read("A")
	if err != nil {
		t.Fatalf("read-only read failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("expected 'payload', got %q", data)
	}
	if err := ro.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// the rejected mutations must not have touched the files
	for path, want := range before {
		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to re-read %s: %v", path, err)
		}
		if !bytes.Equal(after, want) {
			t.Errorf("file %s changed during read-only session", path)
		}
	}
}

// failingEngine delegates to an inner engine but fails Put for one key, to
// force a mid-insert failure.
type failingEngine struct {
	db.KVDB
	failKey string
}

func (f *failingEngine) Put(key string, value []byte) error {
	if key == f.failKey {
		return fmt.Errorf("injected write failure for %q", key)
	}
	return f.KVDB.Put(key, value)
}

func TestInsertRollback(t *testing.T) {
	dir := t.TempDir()
	inner := (&Options{MaxValueSize: 8 + segment.HeaderSize}).factory()
	factory := func(path string, mode recstore.Mode) (db.KVDB, error) {
		engine, err := inner(path, mode)
		if err != nil {
			return nil, err
		}
		return &failingEngine{KVDB: engine, failKey: "rec&2"}, nil
	}

	store, err := Create("flaky", "", dir, &Options{Factory: factory})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	// 20 bytes at capacity 8 needs segments rec, rec&1 and rec&2; the last
	// write fails and everything already written must be rolled back
	err = store.Insert("rec", bytes.Repeat([]byte{7}, 20))
	if !recstore.HasCode(err, recstore.RetCStrategy) {
		t.Fatalf("expected StrategyError, got %v", err)
	}

	if found, _ := store.primary.Has("rec"); found {
		t.Error("primary entry survived failed insert")
	}
	if found, _ := store.subordinate.Has("rec&1"); found {
		t.Error("subordinate entry survived failed insert")
	}
	if store.Count() != 0 {
		t.Errorf("failed insert changed the count: %d", store.Count())
	}
}

func TestCountRecovery(t *testing.T) {
	dir := t.TempDir()
	store, err := Create("counted", "", dir, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Insert(fmt.Sprintf("key-%d", i), []byte("x")); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// lose the metadata file; the count must be recovered from the primary
	// key space
	_, _, propsPath := paths(dir, "counted")
	if err := os.Remove(propsPath); err != nil {
		t.Fatalf("failed to remove metadata file: %v", err)
	}

	reopened, err := Open("counted", dir, recstore.ReadWrite, nil)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()
	if reopened.Count() != 3 {
		t.Errorf("expected recovered count 3, got %d", reopened.Count())
	}
}

func TestChangeName(t *testing.T) {
	dir := t.TempDir()
	store, err := Create("before", "", dir, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()
	if err := store.Insert("A", bytes.Repeat([]byte{3}, 100)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := store.ChangeName("after"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if store.Name() != "after" {
		t.Errorf("expected name 'after', got %q", store.Name())
	}

	oldPrimary, oldSubordinate, oldProps := paths(dir, "before")
	for _, path := range []string{oldPrimary, oldSubordinate, oldProps} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("old file %s still exists", path)
		}
	}
	newPrimary, newSubordinate, newProps := paths(dir, "after")
	for _, path := range []string{newPrimary, newSubordinate, newProps} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("renamed file %s missing: %v", path, err)
		}
	}

	// the store must stay fully usable under the new name
	data, err := store.Read("A")
	if err != nil {
		t.Fatalf("read after rename failed: %v", err)
	}
	if len(data) != 100 {
		t.Errorf("expected 100 bytes, got %d", len(data))
	}
	if err := store.Insert("B", []byte("x")); err != nil {
		t.Errorf("insert after rename failed: %v", err)
	}
}

func TestChangeNameTargetExists(t *testing.T) {
	dir := t.TempDir()
	blocker, err := Create("taken", "", dir, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer blocker.Close()

	store, err := Create("mover", "", dir, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	if err := store.ChangeName("taken"); !recstore.HasCode(err, recstore.RetCExists) {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
	if store.Name() != "mover" {
		t.Errorf("failed rename changed the name to %q", store.Name())
	}
}

// TestChangeNameMetadataFailure blocks only the metadata rename and verifies
// that the engine renames are undone and the store stays fully usable under
// its old name, metadata operations included.
func TestChangeNameMetadataFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := Create("mover", "", dir, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()
	if err := store.Insert("A", []byte("payload")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// a directory at the target metadata path makes the rename fail after
	// both engine files have already moved
	_, _, newProps := paths(dir, "blocked")
	if err := os.Mkdir(newProps, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	if err := store.ChangeName("blocked"); !recstore.HasCode(err, recstore.RetCStrategy) {
		t.Fatalf("expected StrategyError, got %v", err)
	}
	if store.Name() != "mover" {
		t.Errorf("failed rename changed the name to %q", store.Name())
	}

	data, err := store.Read("A")
	if err != nil {
		t.Fatalf("read after failed rename failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("expected 'payload', got %q", data)
	}
	if err := store.ChangeDescription("still here"); err != nil {
		t.Errorf("description change after failed rename failed: %v", err)
	}
	if store.Description() != "still here" {
		t.Errorf("unexpected description %q", store.Description())
	}
}

func TestFlush(t *testing.T) {
	store, _ := newTestStore(t, 0)
	if err := store.Flush("ghost"); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
	if err := store.Insert("A", []byte("x")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Flush("A"); err != nil {
		t.Errorf("flush failed: %v", err)
	}
}

func TestSpaceUsed(t *testing.T) {
	store, _ := newTestStore(t, 0)
	if err := store.Insert("A", bytes.Repeat([]byte{9}, 1024)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	space, err := store.SpaceUsed()
	if err != nil {
		t.Fatalf("space used failed: %v", err)
	}
	if space == 0 {
		t.Error("expected non-zero space usage")
	}
}

func TestIsReservedKey(t *testing.T) {
	tests := []struct {
		key      string
		reserved bool
	}{
		{"A", false},
		{"A&1", true},
		{"A&", false},
		{"A&x", false},
		{"&1", true},
		{"a&b&12", true},
		{"a&12&b", false},
	}
	for _, tc := range tests {
		if got := isReservedKey(tc.key); got != tc.reserved {
			t.Errorf("isReservedKey(%q) = %v, want %v", tc.key, got, tc.reserved)
		}
	}
}
