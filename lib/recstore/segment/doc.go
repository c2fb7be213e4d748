// Package segment implements the pure codec that splits an oversized record
// into a primary entry plus subordinate chunks and reassembles them
// losslessly. It performs no I/O; the dbrs package drives it against real
// engines.
//
// Layout: a record of length L at payload capacity C occupies
// N = max(1, ceil(L/C)) segments. Segment 0 (the primary entry) is a 16-byte
// header (big-endian uint64 total length, big-endian uint64 segment count)
// followed by up to C payload bytes. Segments 1..N-1 (subordinate entries)
// are raw payload chunks of up to C bytes, keyed by the record key joined to
// the segment index with the "&" separator. The last segment holds
// L - C*(N-1) bytes. Concatenating all payloads in index order reproduces
// the record exactly.
package segment
