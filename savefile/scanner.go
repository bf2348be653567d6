package savefile

import (
	"encoding/binary"
)

// A byte range believed to be one logical chunk of the save. The length is
// only known once the next marker (or the end of the buffer) is found.
type ChunkRecord struct {
	Offset int
	Name   string
	Length int
}

// Exclusive end of the chunk within the buffer
func (c ChunkRecord) End() int {
	return c.Offset + c.Length
}

// Whether this record starts at a real marker. Only the leading region
// emitted with ScanOptions.KeepUnmarked is unmarked
func (c ChunkRecord) Marked() bool {
	return c.Name != ""
}

type ScanOptions struct {
	// Also report the bytes before the first marker (the whole buffer when
	// there are no markers) as an unnamed record at offset 0. Without this,
	// a buffer with no markers produces no records at all.
	KeepUnmarked bool
}

// Scanner state between offsets: either nothing is open yet, or a chunk is
// open at some offset and waiting for the next marker to close it.
type scanState struct {
	open   bool
	offset int
}

// Move to a new marker at position, returning the record that this closes
// (if any). The record name is always read from the closed chunk's own marker.
func (s scanState) transition(buffer []byte, position int) (scanState, ChunkRecord, bool) {
	next := scanState{open: true, offset: position}
	if !s.open {
		return next, ChunkRecord{}, false
	}
	return next, s.close(buffer, position), true
}

func (s scanState) close(buffer []byte, end int) ChunkRecord {
	window := buffer[s.offset+MarkerPrefixSize : s.offset+MarkerLength]
	return ChunkRecord{
		Offset: s.offset,
		Name:   MarkerName(window),
		Length: end - s.offset,
	}
}

// Whether a full marker (length prefix of 5 followed by a valid name) starts
// at the given position
func markerAt(buffer []byte, position int) bool {
	if position+MarkerLength > len(buffer) {
		return false
	}
	if binary.LittleEndian.Uint32(buffer[position:]) != MarkerPrefix {
		return false
	}
	return IsChunkMarker(buffer[position+MarkerPrefixSize : position+MarkerLength])
}

// Walk the entire buffer one byte at a time, calling found for each chunk as
// soon as its end is known. Records arrive in offset order and tile the buffer
// from the first marker to the end. Stops at the first error from found.
func ScanFunc(buffer []byte, options ScanOptions, found func(ChunkRecord) error) error {
	if len(buffer) < MarkerLength {
		return &NotEnoughDataError{Expected: MarkerLength, Found: len(buffer)}
	}

	var state scanState

	// Every offset is a candidate: markers may sit at any alignment and the
	// prefix can't be trusted as a jump distance.
	for i := 0; i+MarkerPrefixSize <= len(buffer); i++ {
		if !markerAt(buffer, i) {
			continue
		}
		if !state.open && options.KeepUnmarked && i > 0 {
			if err := found(ChunkRecord{Offset: 0, Length: i}); err != nil {
				return err
			}
		}
		var record ChunkRecord
		var closed bool
		state, record, closed = state.transition(buffer, i)
		if closed {
			if err := found(record); err != nil {
				return err
			}
		}
	}

	if state.open {
		return found(state.close(buffer, len(buffer)))
	}
	if options.KeepUnmarked {
		return found(ChunkRecord{Offset: 0, Length: len(buffer)})
	}
	return nil
}

// Same as ScanFunc but collects all the records
func Scan(buffer []byte, options ScanOptions) ([]ChunkRecord, error) {
	result := make([]ChunkRecord, 0)
	err := ScanFunc(buffer, options, func(record ChunkRecord) error {
		result = append(result, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Check that the records are in increasing order, contiguous, and end exactly
// at length. Returns the first offending record as a RangeError
func Tile(records []ChunkRecord, length int) error {
	for i, r := range records {
		if r.Offset < 0 || r.Length < 0 || r.End() > length {
			return &RangeError{Offset: r.Offset, Length: r.Length, Size: length}
		}
		if i > 0 && records[i-1].End() != r.Offset {
			return &RangeError{Offset: r.Offset, Length: r.Length, Size: length}
		}
	}
	if len(records) > 0 && records[len(records)-1].End() != length {
		last := records[len(records)-1]
		return &RangeError{Offset: last.Offset, Length: last.Length, Size: length}
	}
	return nil
}
