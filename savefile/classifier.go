package savefile

const (
	// Little endian uint32 that precedes every marker name
	MarkerPrefix     = 5
	MarkerPrefixSize = 4
	// Four uppercase letters plus the NUL terminator
	MarkerNameLength = 5
	// Full marker, prefix included
	MarkerLength = MarkerPrefixSize + MarkerNameLength
)

// Whether the given window looks like a chunk name: four uppercase ASCII
// letters followed by a NUL. Only the first MarkerNameLength bytes are looked
// at; anything shorter is rejected.
func IsChunkMarker(window []byte) bool {
	if len(window) < MarkerNameLength {
		return false
	}
	for i := 0; i < MarkerNameLength; i++ {
		if !isValidMarkerByte(window[i], i) {
			return false
		}
	}
	return true
}

func isValidMarkerByte(b byte, index int) bool {
	if index == MarkerNameLength-1 {
		return b == 0x00
	}
	return b >= 'A' && b <= 'Z'
}

// The four letter name within a marker window. Does not validate; call
// IsChunkMarker first
func MarkerName(window []byte) string {
	return string(window[:MarkerNameLength-1])
}
