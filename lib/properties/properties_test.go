package properties

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/bioKV/lib/recstore"
)

func TestSetGetTrimming(t *testing.T) {
	props := New()
	props.Set("  My property   ", "   A Value  ")

	value, ok := props.Get("My property")
	if !ok || value != "A Value" {
		t.Errorf("expected trimmed lookup to yield %q, got %q (ok=%v)", "A Value", value, ok)
	}

	// equivalent spellings of the same key
	for _, key := range []string{"My property", "  My property", "My property  "} {
		if _, ok := props.Get(key); !ok {
			t.Errorf("expected key spelling %q to resolve", key)
		}
	}
}

func TestUint64RoundTrip(t *testing.T) {
	props := New()
	props.SetUint64("Count", 412)

	count, err := props.GetUint64("Count")
	if err != nil {
		t.Fatalf("GetUint64 failed: %v", err)
	}
	if count != 412 {
		t.Errorf("expected 412, got %d", count)
	}

	if _, err := props.GetUint64("Missing"); err == nil {
		t.Errorf("expected error for missing property")
	}

	props.Set("NotANumber", "forty-two")
	if _, err := props.GetUint64("NotANumber"); err == nil {
		t.Errorf("expected error for non-numeric property")
	}
}

func TestParseWrite(t *testing.T) {
	input := "Name = fingerprints\n\n  Description =  left index captures \n"
	props, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if name, _ := props.Get("Name"); name != "fingerprints" {
		t.Errorf("Name = %q", name)
	}
	if desc, _ := props.Get("Description"); desc != "left index captures" {
		t.Errorf("Description = %q", desc)
	}

	var buf bytes.Buffer
	if err := props.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	reparsed, err := Parse(&buf)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if name, _ := reparsed.Get("Name"); name != "fingerprints" {
		t.Errorf("round trip lost Name, got %q", name)
	}
}

func TestParseMalformedLine(t *testing.T) {
	if _, err := Parse(strings.NewReader("no separator here\n")); err == nil {
		t.Errorf("expected parse failure for line without separator")
	}
}

func TestValueContainingSeparator(t *testing.T) {
	props, err := Parse(strings.NewReader("Formula = a = b\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// everything after the first separator belongs to the value
	if value, _ := props.Get("Formula"); value != "a = b" {
		t.Errorf("Formula = %q", value)
	}
}

func TestFileCreateSyncReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.properties")

	pf, err := OpenFile(path, recstore.ReadWrite)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	pf.Set("Name", "fingerprints")
	pf.SetUint64("Count", 3)
	if err := pf.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	reloaded, err := OpenFile(path, recstore.ReadOnly)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if name, _ := reloaded.Get("Name"); name != "fingerprints" {
		t.Errorf("Name = %q after reload", name)
	}
	if count, err := reloaded.GetUint64("Count"); err != nil || count != 3 {
		t.Errorf("Count = %d (err=%v) after reload", count, err)
	}
}

func TestFileReadOnlyGating(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.properties")

	// read-only open of a missing file fails with NotFound
	if _, err := OpenFile(path, recstore.ReadOnly); !recstore.HasCode(err, recstore.RetCNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}

	pf, err := OpenFile(path, recstore.ReadWrite)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if err := pf.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	ro, err := OpenFile(path, recstore.ReadOnly)
	if err != nil {
		t.Fatalf("read-only open failed: %v", err)
	}
	if err := ro.Sync(); !recstore.HasCode(err, recstore.RetCReadOnly) {
		t.Errorf("expected ReadOnlyViolation from Sync, got %v", err)
	}
	if err := ro.ChangeName(filepath.Join(dir, "renamed.properties")); !recstore.HasCode(err, recstore.RetCReadOnly) {
		t.Errorf("expected ReadOnlyViolation from ChangeName, got %v", err)
	}
}

func TestFileChangeName(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.properties")
	newPath := filepath.Join(dir, "new.properties")

	pf, err := OpenFile(oldPath, recstore.ReadWrite)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	pf.Set("Name", "old")
	if err := pf.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if err := pf.ChangeName(newPath); err != nil {
		t.Fatalf("ChangeName failed: %v", err)
	}
	if pf.Filename() != newPath {
		t.Errorf("Filename = %q", pf.Filename())
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Errorf("old file still present")
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("new file missing: %v", err)
	}
}
