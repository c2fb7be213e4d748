package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/bioKV/lib/recstore"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// HeaderSize is the fixed size of the primary-entry header in bytes:
	// big-endian uint64 total record length followed by big-endian uint64
	// segment count. The layout is stable across a store's lifetime; there
	// is no format migration.
	HeaderSize = 16

	// KeySeparator joins a record key and a segment index to form the key
	// of a subordinate entry.
	KeySeparator = "&"
)

// --------------------------------------------------------------------------
// Header
// --------------------------------------------------------------------------

// Header is the reassembly metadata stored at the front of every primary
// entry.
type Header struct {
	TotalLength  uint64 // Length of the whole record in bytes
	SegmentCount uint64 // Number of physical segments, >= 1
}

// EncodeHeader writes h into the first HeaderSize bytes of dst.
// dst must be at least HeaderSize bytes long.
func EncodeHeader(dst []byte, h Header) {
	binary.BigEndian.PutUint64(dst[0:8], h.TotalLength)
	binary.BigEndian.PutUint64(dst[8:16], h.SegmentCount)
}

// DecodeHeader splits a primary entry into its header and payload.
// Fails with CorruptRecord when the entry is too short to carry a header or
// the header fields are inconsistent with each other.
func DecodeHeader(primary []byte) (Header, []byte, error) {
	if len(primary) < HeaderSize {
		return Header{}, nil, recstore.NewErrorf(recstore.RetCCorruptRecord,
			"primary entry too short for header: %d bytes", len(primary))
	}
	h := Header{
		TotalLength:  binary.BigEndian.Uint64(primary[0:8]),
		SegmentCount: binary.BigEndian.Uint64(primary[8:16]),
	}
	if h.SegmentCount == 0 {
		return Header{}, nil, recstore.NewError(recstore.RetCCorruptRecord,
			"primary header declares zero segments")
	}
	return h, primary[HeaderSize:], nil
}

// --------------------------------------------------------------------------
// Capacity and Counting
// --------------------------------------------------------------------------

// PayloadCapacity derives the per-segment payload capacity from an engine's
// per-entry value-size ceiling. The primary entry spends HeaderSize bytes on
// its header, so the ceiling must exceed the header.
// Fails with ConfigurationError otherwise.
func PayloadCapacity(maxValueSize int) (int, error) {
	capacity := maxValueSize - HeaderSize
	if capacity <= 0 {
		return 0, recstore.NewErrorf(recstore.RetCConfig,
			"engine value ceiling %d does not exceed segment header size %d",
			maxValueSize, HeaderSize)
	}
	return capacity, nil
}

// Count returns the number of segments a record of totalLength bytes
// occupies at the given payload capacity: max(1, ceil(totalLength/capacity)).
func Count(totalLength uint64, capacity int) uint64 {
	if totalLength == 0 {
		return 1
	}
	c := uint64(capacity)
	return (totalLength + c - 1) / c
}

// SubordinateKey derives the engine key of segment index (1-based) of the
// record stored under key. The derivation is deterministic and reversible:
// the record key is everything before the last separator.
func SubordinateKey(key string, index uint64) string {
	return fmt.Sprintf("%s%s%d", key, KeySeparator, index)
}

// --------------------------------------------------------------------------
// Split and Reassemble
// --------------------------------------------------------------------------

// Split cuts data into a primary entry (header plus the first capacity bytes
// of payload) and zero or more subordinate chunks of up to capacity bytes
// each, in index order. The split is deterministic.
// Fails with ConfigurationError when capacity is not positive.
//
// The returned slices alias data; callers that need the input to outlive the
// segments must copy.
func Split(data []byte, capacity int) (primary []byte, subordinates [][]byte, err error) {
	if capacity <= 0 {
		return nil, nil, recstore.NewErrorf(recstore.RetCConfig,
			"segment payload capacity must be positive, got %d", capacity)
	}

	totalLength := uint64(len(data))
	count := Count(totalLength, capacity)

	first := data
	if len(first) > capacity {
		first = data[:capacity]
	}
	primary = make([]byte, HeaderSize+len(first))
	EncodeHeader(primary, Header{TotalLength: totalLength, SegmentCount: count})
	copy(primary[HeaderSize:], first)

	if count > 1 {
		subordinates = make([][]byte, 0, count-1)
		for offset := capacity; offset < len(data); offset += capacity {
			end := offset + capacity
			if end > len(data) {
				end = len(data)
			}
			subordinates = append(subordinates, data[offset:end])
		}
	}
	return primary, subordinates, nil
}

// Reassemble reverses Split: it concatenates the primary payload and the
// subordinate chunks in index order and verifies the result against the
// primary header. Fails with CorruptRecord when the supplied chunk count
// does not equal the header's segment count minus one, or when the
// concatenated length does not equal the header's total length.
func Reassemble(primary []byte, subordinates [][]byte) ([]byte, error) {
	header, payload, err := DecodeHeader(primary)
	if err != nil {
		return nil, err
	}

	if uint64(len(subordinates)) != header.SegmentCount-1 {
		return nil, recstore.NewErrorf(recstore.RetCCorruptRecord,
			"expected %d subordinate segments, got %d",
			header.SegmentCount-1, len(subordinates))
	}

	data := make([]byte, 0, header.TotalLength)
	data = append(data, payload...)
	for _, chunk := range subordinates {
		data = append(data, chunk...)
	}

	if uint64(len(data)) != header.TotalLength {
		return nil, recstore.NewErrorf(recstore.RetCCorruptRecord,
			"reassembled %d bytes, header declares %d", len(data), header.TotalLength)
	}
	return data, nil
}
