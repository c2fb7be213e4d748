package bolt

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/bioKV/lib/db"
	dbtesting "github.com/ValentinKolb/bioKV/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "BoltDB", func() db.KVDB {
		path := filepath.Join(t.TempDir(), "bolt.db")
		database, err := Open(path, nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return database
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "BoltDB", func() db.KVDB {
		path := filepath.Join(b.TempDir(), "bolt.db")
		database, err := Open(path, nil)
		if err != nil {
			b.Fatalf("Open failed: %v", err)
		}
		return database
	})
}

// TestPersistence verifies that data written before Close is visible after a
// reopen of the same file.
func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bolt.db")

	database, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := database.Put("persistent-key", []byte("persistent-value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	database, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer database.Close()

	value, found, err := database.Get("persistent-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatalf("Expected key to survive reopen")
	}
	if !bytes.Equal(value, []byte("persistent-value")) {
		t.Errorf("Expected value to survive reopen, got %s", value)
	}
}

// TestReadOnlyOpen verifies the read-only mode mapping.
func TestReadOnlyOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bolt.db")

	// Read-only open of a missing file must fail
	if _, err := Open(path, &Options{ReadOnly: true}); err == nil {
		t.Fatalf("Expected read-only open of a missing file to fail")
	}

	database, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := database.Put("key", []byte("value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	database, err = Open(path, &Options{ReadOnly: true})
	if err != nil {
		t.Fatalf("read-only open failed: %v", err)
	}
	defer database.Close()

	// Reads work
	if _, found, err := database.Get("key"); err != nil || !found {
		t.Errorf("Expected read to succeed on read-only engine (found=%v, err=%v)", found, err)
	}

	// Writes fail at the engine level
	if err := database.Put("key2", []byte("value2")); err == nil {
		t.Errorf("Expected Put on read-only engine to fail")
	}
}

// TestCustomCeiling verifies that a configured ceiling is enforced.
func TestCustomCeiling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bolt.db")

	database, err := Open(path, &Options{MaxValueSize: 32})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	if database.MaxValueSize() != 32 {
		t.Fatalf("Expected ceiling 32, got %d", database.MaxValueSize())
	}
	if err := database.Put("ok", make([]byte, 32)); err != nil {
		t.Errorf("Put at ceiling failed: %v", err)
	}
	if err := database.Put("too-big", make([]byte, 33)); err == nil {
		t.Errorf("Expected Put over ceiling to fail")
	}
}
