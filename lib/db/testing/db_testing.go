package testing

import (
	"bytes"
	"fmt"
	"sort"
	"testing"

	"github.com/ValentinKolb/bioKV/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory())
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("EmptyValue", func(t *testing.T) {
			testEmptyValue(t, factory())
		})

		t.Run("ValueCeiling", func(t *testing.T) {
			testValueCeiling(t, factory())
		})

		t.Run("OrderedIteration", func(t *testing.T) {
			testOrderedIteration(t, factory())
		})

		t.Run("NextKeySeek", func(t *testing.T) {
			testNextKeySeek(t, factory())
		})

		t.Run("ValueIsolation", func(t *testing.T) {
			testValueIsolation(t, factory())
		})

		t.Run("Sync", func(t *testing.T) {
			testSync(t, factory())
		})

		t.Run("SpaceUsed", func(t *testing.T) {
			testSpaceUsed(t, factory())
		})

		t.Run("GetInfo", func(t *testing.T) {
			testGetInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureGet)

	testKey := "test-key"
	testValue := []byte("test-value")

	if err := database.Put(testKey, testValue); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	result, found, err := database.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Errorf("Expected key %s to exist after Put", testKey)
	}
	if !bytes.Equal(result, testValue) {
		t.Errorf("Expected value %s, got %s", testValue, result)
	}

	_, found, err = database.Get("nonexistent-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Errorf("Expected nonexistent key to return found=false")
	}
}

func testOverwrite(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	if err := database.Put(testKey, testValue1); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := database.Put(testKey, testValue2); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	result, found, err := database.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Errorf("Expected key %s to exist after Put", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureDelete)

	testKey := "test-key"

	if err := database.Put(testKey, []byte("test-value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	found, err := database.Delete(testKey)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !found {
		t.Errorf("Expected Delete to report the key existed")
	}

	_, found, err = database.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Errorf("Expected key %s to be gone after Delete", testKey)
	}

	found, err = database.Delete(testKey)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if found {
		t.Errorf("Expected Delete of a missing key to report found=false")
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureHas)

	testKey := "test-key"

	found, err := database.Has(testKey)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if found {
		t.Errorf("Expected Has to return false for a missing key")
	}

	if err := database.Put(testKey, []byte("test-value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	found, err = database.Has(testKey)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !found {
		t.Errorf("Expected Has to return true after Put")
	}
}

func testEmptyValue(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureGet)

	testKey := "empty-value-key"

	if err := database.Put(testKey, []byte{}); err != nil {
		t.Fatalf("Put of empty value failed: %v", err)
	}

	result, found, err := database.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Errorf("Expected zero-length value to be stored and found")
	}
	if len(result) != 0 {
		t.Errorf("Expected zero-length value, got %d bytes", len(result))
	}
}

func testValueCeiling(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)

	ceiling := database.MaxValueSize()
	if ceiling <= 0 {
		t.Fatalf("Expected a positive MaxValueSize, got %d", ceiling)
	}

	// At the ceiling: must succeed
	if err := database.Put("at-ceiling", make([]byte, ceiling)); err != nil {
		t.Errorf("Put of value at ceiling failed: %v", err)
	}

	// One over: must fail
	if err := database.Put("over-ceiling", make([]byte, ceiling+1)); err == nil {
		t.Errorf("Expected Put of oversized value to fail")
	}

	// The failed Put must not have stored anything
	if database.SupportsFeature(db.FeatureHas) {
		found, err := database.Has("over-ceiling")
		if err != nil {
			t.Fatalf("Has failed: %v", err)
		}
		if found {
			t.Errorf("Oversized Put left an entry behind")
		}
	}
}

func testOrderedIteration(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureIterate)

	// Insert out of order, expect byte-wise order back
	keys := []string{"delta", "alpha", "echo", "bravo", "charlie"}
	for _, key := range keys {
		if err := database.Put(key, []byte(key)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	expected := append([]string{}, keys...)
	sort.Strings(expected)

	var visited []string
	key, found, err := database.FirstKey()
	for found {
		if err != nil {
			t.Fatalf("iteration failed: %v", err)
		}
		visited = append(visited, key)
		key, found, err = database.NextKey(key)
	}
	if err != nil {
		t.Fatalf("iteration failed: %v", err)
	}

	if len(visited) != len(expected) {
		t.Fatalf("Expected %d keys, visited %d", len(expected), len(visited))
	}
	for i := range expected {
		if visited[i] != expected[i] {
			t.Errorf("Expected key %q at position %d, got %q", expected[i], i, visited[i])
		}
	}
}

func testNextKeySeek(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureIterate)

	for _, key := range []string{"b", "d", "f"} {
		if err := database.Put(key, []byte(key)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// NextKey from a key that is not stored must still land correctly
	cases := []struct {
		after    string
		expect   string
		expectOk bool
	}{
		{"", "b", true},  // before everything
		{"a", "b", true}, // gap before first
		{"b", "d", true}, // stored key
		{"c", "d", true}, // gap
		{"e", "f", true},
		{"f", "", false}, // after last
		{"z", "", false},
	}

	for _, tc := range cases {
		key, found, err := database.NextKey(tc.after)
		if err != nil {
			t.Fatalf("NextKey(%q) failed: %v", tc.after, err)
		}
		if found != tc.expectOk || key != tc.expect {
			t.Errorf("NextKey(%q) = (%q, %v), expected (%q, %v)",
				tc.after, key, found, tc.expect, tc.expectOk)
		}
	}
}

func testValueIsolation(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureGet)

	testKey := "isolation-key"
	original := []byte("original")

	if err := database.Put(testKey, original); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Mutating the slice passed to Put must not affect the stored value
	original[0] = 'X'

	// Mutating the slice returned by Get must not affect the stored value
	result, _, err := database.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	result[0] = 'Y'

	result, _, err = database.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(result, []byte("original")) {
		t.Errorf("Stored value was mutated through caller slices: %s", result)
	}
}

func testSync(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureSync)

	if err := database.Put("sync-key", []byte("sync-value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := database.Sync(); err != nil {
		t.Errorf("Sync failed: %v", err)
	}
}

func testSpaceUsed(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)
	requireFeature(t, database, db.FeatureSpaceUsed)

	for i := 0; i < 16; i++ {
		key := fmt.Sprintf("space-key-%02d", i)
		if err := database.Put(key, make([]byte, 512)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	space, err := database.SpaceUsed()
	if err != nil {
		t.Fatalf("SpaceUsed failed: %v", err)
	}
	if space == 0 {
		t.Errorf("Expected a non-zero footprint after writes")
	}
}

func testGetInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut)

	if err := database.Put("info-key", []byte("info-value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	info := database.GetInfo()
	if info.DbType == "" {
		t.Errorf("Expected DbType to be set")
	}
	if info.MaxValueSize != database.MaxValueSize() {
		t.Errorf("Expected GetInfo ceiling %d to match MaxValueSize %d",
			info.MaxValueSize, database.MaxValueSize())
	}
	if info.EntryCount < 1 {
		t.Errorf("Expected at least one entry, got %d", info.EntryCount)
	}
}
