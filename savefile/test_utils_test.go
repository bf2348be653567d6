package savefile

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Payload filler that can never contain the byte 5, so no accidental markers
// show up in generated saves
func safeFiller(length int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	result := make([]byte, length)
	for i := range result {
		b := byte(rng.Intn(256))
		if b == MarkerPrefix {
			b = 0xFF
		}
		result[i] = b
	}
	return result
}

// A piece of a synthetic save: an optional marker then filler up to Size
// total bytes
type testChunk struct {
	Name string
	Size int
}

// Build a synthetic decompressed save. Returns the data and the records a
// correct scan should produce
func buildSave(t *testing.T, leading int, chunks []testChunk) ([]byte, []ChunkRecord) {
	var buf bytes.Buffer
	buf.Write(safeFiller(leading, 1))
	expected := make([]ChunkRecord, 0)
	for i, c := range chunks {
		require.GreaterOrEqual(t, c.Size, MarkerLength, "test chunk too small")
		expected = append(expected, ChunkRecord{Offset: buf.Len(), Name: c.Name, Length: c.Size})
		buf.Write(MakeMarker(c.Name))
		buf.Write(safeFiller(c.Size-MarkerLength, int64(i+2)))
	}
	return buf.Bytes(), expected
}

// Write a compressed save into a temp dir, returning its path
func writeCompressedSave(t *testing.T, data []byte) string {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultSaveName)
	var buf bytes.Buffer
	require.NoError(t, Compress(data, &buf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}
