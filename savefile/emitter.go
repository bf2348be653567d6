package savefile

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

const (
	ArtifactExtension = ".bin"
	unmarkedName      = "----" // Stand-in name for the unmarked leading region
)

// One chunk that was successfully written out
type WrittenArtifact struct {
	Record ChunkRecord
	Path   string
	Blake3 string
}

// Writes each discovered chunk as its own file under Root. Logger, Manifest
// and Decoders are all optional.
type Emitter struct {
	Root     string
	Logger   *zap.Logger
	Manifest *Manifest
	Decoders *DecoderRegistry
}

// Deterministic file name for a chunk: {offset}-{name}_0x{HEXOFFSET}.bin.
// The offset makes it unique within a single scan
func ArtifactName(record ChunkRecord) string {
	name := record.Name
	if !record.Marked() {
		name = unmarkedName
	}
	return fmt.Sprintf("%d-%s_0x%X%s", record.Offset, name, record.Offset, ArtifactExtension)
}

func blake3String(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func (e *Emitter) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Slice the record out of the buffer and write it. Out of range records are a
// program error and return *RangeError without touching the disk
func (e *Emitter) Emit(buffer []byte, record ChunkRecord) (WrittenArtifact, error) {
	var result WrittenArtifact
	if record.Offset < 0 || record.Offset > len(buffer) ||
		record.Length < 0 || record.End() > len(buffer) {
		return result, &RangeError{Offset: record.Offset, Length: record.Length, Size: len(buffer)}
	}

	data := buffer[record.Offset:record.End()]
	path := filepath.Join(e.Root, ArtifactName(record))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return result, &WriteError{Path: path, Err: err}
	}

	result = WrittenArtifact{Record: record, Path: path, Blake3: blake3String(data)}
	e.logger().Debug("Wrote chunk",
		zap.String("name", record.Name),
		zap.Int("offset", record.Offset),
		zap.String("offset_hex", fmt.Sprintf("0x%X", record.Offset)),
		zap.Int("length", record.Length),
		zap.String("length_hex", fmt.Sprintf("0x%X", record.Length)),
		zap.String("file", path),
	)

	if e.Manifest != nil {
		e.Manifest.Add(result)
	}
	e.decode(record, data)
	return result, nil
}

// Run any registered decoder for this chunk. Decoders are exploratory, so a
// failure is only logged
func (e *Emitter) decode(record ChunkRecord, data []byte) {
	if e.Decoders == nil {
		return
	}
	decoder, ok := e.Decoders.Lookup(record.Name)
	if !ok {
		return
	}
	fields, err := decoder.Decode(record, data)
	if err != nil {
		e.logger().Warn("Couldn't decode chunk",
			zap.String("name", record.Name), zap.Int("offset", record.Offset), zap.Error(err))
		return
	}
	e.logger().Debug("Decoded chunk",
		zap.String("name", record.Name), zap.Int("offset", record.Offset), zap.Any("fields", fields))
}
