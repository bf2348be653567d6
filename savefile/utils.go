package savefile

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
)

// Produce an md5 string from given data (a simple shortcut)
func Md5String(data []byte) string {
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}

// The full 9 byte marker for a chunk name: the little endian length prefix
// followed by the name and its NUL terminator
func MakeMarker(name string) []byte {
	result := make([]byte, MarkerLength)
	binary.LittleEndian.PutUint32(result, MarkerPrefix)
	copy(result[MarkerPrefixSize:], name)
	return result
}
