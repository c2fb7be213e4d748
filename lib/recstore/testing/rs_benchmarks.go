package testing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/bioKV/lib/recstore"
)

// BenchFactory creates a fresh empty store in read-write mode for a
// benchmark run.
type BenchFactory func(b *testing.B) recstore.RecordStore

// RunRecordStoreBenchmarks runs all benchmarks for a record store
// implementation.
func RunRecordStoreBenchmarks(b *testing.B, name string, capacity int, factory BenchFactory) {
	if capacity <= 0 {
		capacity = 64
	}

	b.Run("Insert", func(b *testing.B) {
		benchmarkInsert(b, factory(b), capacity)
	})

	b.Run("InsertSegmented", func(b *testing.B) {
		benchmarkInsertSegmented(b, factory(b), capacity)
	})

	b.Run("Read", func(b *testing.B) {
		benchmarkRead(b, factory(b), capacity)
	})

	b.Run("ReadSegmented", func(b *testing.B) {
		benchmarkReadSegmented(b, factory(b), capacity)
	})

	b.Run("Replace", func(b *testing.B) {
		benchmarkReplace(b, factory(b), capacity)
	})

	b.Run("Length", func(b *testing.B) {
		benchmarkLength(b, factory(b), capacity)
	})

	b.Run("SequenceKey", func(b *testing.B) {
		benchmarkSequenceKey(b, factory(b))
	})

	b.Run("Remove", func(b *testing.B) {
		benchmarkRemove(b, factory(b), capacity)
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func randomRecord(length int) []byte {
	data := make([]byte, length)
	rand.Read(data)
	return data
}

// Benchmark for single-segment Insert
func benchmarkInsert(b *testing.B, store recstore.RecordStore, capacity int) {
	b.Cleanup(func() {
		store.Close()
	})

	data := randomRecord(capacity / 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Insert(fmt.Sprintf("key-%d", i), data); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}
}

// Benchmark for Insert spanning multiple segments
func benchmarkInsertSegmented(b *testing.B, store recstore.RecordStore, capacity int) {
	b.Cleanup(func() {
		store.Close()
	})

	data := randomRecord(8 * capacity)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Insert(fmt.Sprintf("key-%d", i), data); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}
}

// Benchmark for single-segment Read
func benchmarkRead(b *testing.B, store recstore.RecordStore, capacity int) {
	b.Cleanup(func() {
		store.Close()
	})

	const keySpread = 256
	data := randomRecord(capacity / 2)
	for i := 0; i < keySpread; i++ {
		if err := store.Insert(fmt.Sprintf("key-%d", i), data); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Read(fmt.Sprintf("key-%d", i%keySpread)); err != nil {
			b.Fatalf("Read failed: %v", err)
		}
	}
}

// Benchmark for Read with reassembly across segments
func benchmarkReadSegmented(b *testing.B, store recstore.RecordStore, capacity int) {
	b.Cleanup(func() {
		store.Close()
	})

	const keySpread = 64
	data := randomRecord(8 * capacity)
	for i := 0; i < keySpread; i++ {
		if err := store.Insert(fmt.Sprintf("key-%d", i), data); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Read(fmt.Sprintf("key-%d", i%keySpread)); err != nil {
			b.Fatalf("Read failed: %v", err)
		}
	}
}

// Benchmark for Replace on an existing key
func benchmarkReplace(b *testing.B, store recstore.RecordStore, capacity int) {
	b.Cleanup(func() {
		store.Close()
	})

	key := "existing-key"
	data := randomRecord(capacity / 2)
	if err := store.Insert(key, data); err != nil {
		b.Fatalf("Insert failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Replace(key, data); err != nil {
			b.Fatalf("Replace failed: %v", err)
		}
	}
}

// Benchmark for Length, which must not reassemble
func benchmarkLength(b *testing.B, store recstore.RecordStore, capacity int) {
	b.Cleanup(func() {
		store.Close()
	})

	key := "measured-key"
	if err := store.Insert(key, randomRecord(8*capacity)); err != nil {
		b.Fatalf("Insert failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Length(key); err != nil {
			b.Fatalf("Length failed: %v", err)
		}
	}
}

// Benchmark for cursor stepping over the key space
func benchmarkSequenceKey(b *testing.B, store recstore.RecordStore) {
	b.Cleanup(func() {
		store.Close()
	})

	const keySpread = 256
	for i := 0; i < keySpread; i++ {
		if err := store.Insert(fmt.Sprintf("key-%04d", i), []byte("benchmark-value")); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}

	b.ResetTimer()
	mode := recstore.SequenceStart
	for i := 0; i < b.N; i++ {
		_, err := store.SequenceKey(mode)
		if recstore.HasCode(err, recstore.RetCExhausted) {
			mode = recstore.SequenceStart
			continue
		}
		if err != nil {
			b.Fatalf("SequenceKey failed: %v", err)
		}
		mode = recstore.SequenceNext
	}
}

// Benchmark for Remove of multi-segment records
func benchmarkRemove(b *testing.B, store recstore.RecordStore, capacity int) {
	b.Cleanup(func() {
		store.Close()
	})

	data := randomRecord(4 * capacity)
	for i := 0; i < b.N; i++ {
		if err := store.Insert(fmt.Sprintf("key-%d", i), data); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Remove(fmt.Sprintf("key-%d", i)); err != nil {
			b.Fatalf("Remove failed: %v", err)
		}
	}
}
