package testing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/bioKV/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("Put", func(b *testing.B) {
		benchmarkPut(b, factory())
	})

	b.Run("PutExisting", func(b *testing.B) {
		benchmarkPutExisting(b, factory())
	})

	b.Run("PutLargeValue", func(b *testing.B) {
		benchmarkPutLargeValue(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("Has", func(b *testing.B) {
		benchmarkHas(b, factory())
	})

	b.Run("Has(not)", func(b *testing.B) {
		benchmarkHasNot(b, factory())
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory())
	})

	b.Run("NextKey", func(b *testing.B) {
		benchmarkNextKey(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Put operation
func benchmarkPut(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	value := []byte("benchmark-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Put(fmt.Sprintf("key-%d", i), value); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

// Benchmark for Put on an existing key (overwrite path)
func benchmarkPutExisting(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	key := "existing-key"
	value := []byte("benchmark-value")
	if err := database.Put(key, value); err != nil {
		b.Fatalf("Put failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Put(key, value); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

// Benchmark for Put with values at the engine ceiling
func benchmarkPutLargeValue(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	value := make([]byte, database.MaxValueSize())
	rand.Read(value)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Put(fmt.Sprintf("large-%d", i), value); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)
	requireFeature(b, database, db.FeatureGet)

	const keySpread = 1024
	for i := 0; i < keySpread; i++ {
		if err := database.Put(fmt.Sprintf("key-%d", i), []byte("benchmark-value")); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := database.Get(fmt.Sprintf("key-%d", i%keySpread)); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}

// Benchmark for Has on present keys
func benchmarkHas(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)
	requireFeature(b, database, db.FeatureHas)

	const keySpread = 1024
	for i := 0; i < keySpread; i++ {
		if err := database.Put(fmt.Sprintf("key-%d", i), []byte("benchmark-value")); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := database.Has(fmt.Sprintf("key-%d", i%keySpread)); err != nil {
			b.Fatalf("Has failed: %v", err)
		}
	}
}

// Benchmark for Has on absent keys
func benchmarkHasNot(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureHas)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := database.Has(fmt.Sprintf("missing-%d", i)); err != nil {
			b.Fatalf("Has failed: %v", err)
		}
	}
}

// Benchmark for Delete operation
func benchmarkDelete(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)
	requireFeature(b, database, db.FeatureDelete)

	for i := 0; i < b.N; i++ {
		if err := database.Put(fmt.Sprintf("key-%d", i), []byte("benchmark-value")); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := database.Delete(fmt.Sprintf("key-%d", i)); err != nil {
			b.Fatalf("Delete failed: %v", err)
		}
	}
}

// Benchmark for forward key stepping
func benchmarkNextKey(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)
	requireFeature(b, database, db.FeatureIterate)

	const keySpread = 1024
	for i := 0; i < keySpread; i++ {
		if err := database.Put(fmt.Sprintf("key-%04d", i), []byte("benchmark-value")); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}

	b.ResetTimer()
	key, found, err := database.FirstKey()
	for i := 0; i < b.N; i++ {
		if err != nil {
			b.Fatalf("iteration failed: %v", err)
		}
		if !found {
			key, found, err = database.FirstKey()
			continue
		}
		key, found, err = database.NextKey(key)
	}
}
