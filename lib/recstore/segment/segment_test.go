package segment

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/bioKV/lib/recstore"
)

func makeData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestCount(t *testing.T) {
	cases := []struct {
		length   uint64
		capacity int
		expect   uint64
	}{
		{0, 8, 1},
		{1, 8, 1},
		{7, 8, 1},
		{8, 8, 1},
		{9, 8, 2},
		{16, 8, 2},
		{17, 8, 3},
		{20, 8, 3},
		{40, 8, 5},
	}
	for _, tc := range cases {
		if got := Count(tc.length, tc.capacity); got != tc.expect {
			t.Errorf("Count(%d, %d) = %d, expected %d", tc.length, tc.capacity, got, tc.expect)
		}
	}
}

func TestPayloadCapacity(t *testing.T) {
	capacity, err := PayloadCapacity(HeaderSize + 8)
	if err != nil {
		t.Fatalf("PayloadCapacity failed: %v", err)
	}
	if capacity != 8 {
		t.Errorf("expected capacity 8, got %d", capacity)
	}

	for _, ceiling := range []int{0, HeaderSize - 1, HeaderSize} {
		if _, err := PayloadCapacity(ceiling); !recstore.HasCode(err, recstore.RetCConfig) {
			t.Errorf("PayloadCapacity(%d): expected ConfigurationError, got %v", ceiling, err)
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	const capacity = 8

	// Lengths around every boundary the codec cares about
	for _, length := range []int{0, 1, capacity - 1, capacity, capacity + 1, 5 * capacity} {
		data := makeData(length)

		primary, subordinates, err := Split(data, capacity)
		if err != nil {
			t.Fatalf("Split(%d bytes) failed: %v", length, err)
		}

		header, payload, err := DecodeHeader(primary)
		if err != nil {
			t.Fatalf("DecodeHeader failed: %v", err)
		}
		if header.TotalLength != uint64(length) {
			t.Errorf("length %d: header declares %d bytes", length, header.TotalLength)
		}
		expectCount := Count(uint64(length), capacity)
		if header.SegmentCount != expectCount {
			t.Errorf("length %d: header declares %d segments, expected %d",
				length, header.SegmentCount, expectCount)
		}
		if uint64(len(subordinates)) != expectCount-1 {
			t.Errorf("length %d: %d subordinate chunks, expected %d",
				length, len(subordinates), expectCount-1)
		}
		if len(payload) > capacity {
			t.Errorf("length %d: primary payload %d bytes exceeds capacity", length, len(payload))
		}

		reassembled, err := Reassemble(primary, subordinates)
		if err != nil {
			t.Fatalf("Reassemble(%d bytes) failed: %v", length, err)
		}
		if !bytes.Equal(reassembled, data) {
			t.Errorf("length %d: round trip mismatch", length)
		}
	}
}

func TestSplitLastSegmentLength(t *testing.T) {
	// 20 bytes at capacity 8 -> segments of 8, 8 and 4 bytes
	primary, subordinates, err := Split(makeData(20), 8)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(primary) != HeaderSize+8 {
		t.Errorf("primary is %d bytes, expected %d", len(primary), HeaderSize+8)
	}
	if len(subordinates) != 2 {
		t.Fatalf("expected 2 subordinate chunks, got %d", len(subordinates))
	}
	if len(subordinates[0]) != 8 {
		t.Errorf("first subordinate chunk is %d bytes, expected 8", len(subordinates[0]))
	}
	if len(subordinates[1]) != 4 {
		t.Errorf("last subordinate chunk is %d bytes, expected 4", len(subordinates[1]))
	}
}

func TestSplitInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, _, err := Split([]byte("data"), capacity); !recstore.HasCode(err, recstore.RetCConfig) {
			t.Errorf("Split with capacity %d: expected ConfigurationError, got %v", capacity, err)
		}
	}
}

func TestReassembleChunkCountMismatch(t *testing.T) {
	primary, subordinates, err := Split(makeData(20), 8)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// Drop a chunk
	if _, err := Reassemble(primary, subordinates[:1]); !recstore.HasCode(err, recstore.RetCCorruptRecord) {
		t.Errorf("expected CorruptRecord on missing chunk, got %v", err)
	}

	// Add a chunk
	extra := append(append([][]byte{}, subordinates...), []byte("extra"))
	if _, err := Reassemble(primary, extra); !recstore.HasCode(err, recstore.RetCCorruptRecord) {
		t.Errorf("expected CorruptRecord on surplus chunk, got %v", err)
	}
}

func TestReassembleLengthMismatch(t *testing.T) {
	primary, subordinates, err := Split(makeData(20), 8)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// Truncate the last chunk; count still matches, length must not
	subordinates[1] = subordinates[1][:2]
	if _, err := Reassemble(primary, subordinates); !recstore.HasCode(err, recstore.RetCCorruptRecord) {
		t.Errorf("expected CorruptRecord on length mismatch, got %v", err)
	}
}

func TestDecodeHeaderTooShort(t *testing.T) {
	if _, _, err := DecodeHeader(make([]byte, HeaderSize-1)); !recstore.HasCode(err, recstore.RetCCorruptRecord) {
		t.Errorf("expected CorruptRecord on short primary entry, got %v", err)
	}
}

func TestSubordinateKey(t *testing.T) {
	if got := SubordinateKey("fingerprint-07", 2); got != "fingerprint-07&2" {
		t.Errorf("SubordinateKey = %q", got)
	}
}
