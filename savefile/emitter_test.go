package savefile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestArtifactName(t *testing.T) {
	require.Equal(t, "20-ABCD_0x14.bin", ArtifactName(ChunkRecord{Offset: 20, Name: "ABCD", Length: 30}))
	require.Equal(t, "0-WXYZ_0x0.bin", ArtifactName(ChunkRecord{Offset: 0, Name: "WXYZ", Length: 1}))
	require.Equal(t, "48879-BEEF_0xBEEF.bin", ArtifactName(ChunkRecord{Offset: 0xBEEF, Name: "BEEF"}))
	require.Equal(t, "0-----_0x0.bin", ArtifactName(ChunkRecord{Offset: 0, Length: 5}))
}

func TestEmit(t *testing.T) {
	data, records := buildSave(t, 20, []testChunk{{"ABCD", 30}})
	core, logs := observer.New(zapcore.DebugLevel)
	manifest := NewManifest("test", data)
	emitter := Emitter{Root: t.TempDir(), Logger: zap.New(core), Manifest: manifest}

	artifact, err := emitter.Emit(data, records[0])
	require.NoError(t, err)
	require.Equal(t, filepath.Join(emitter.Root, "20-ABCD_0x14.bin"), artifact.Path)

	written, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	require.Equal(t, data[20:50], written)
	require.Equal(t, blake3String(written), artifact.Blake3)

	entries := logs.FilterMessage("Wrote chunk").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "ABCD", fields["name"])
	require.Equal(t, int64(20), fields["offset"])
	require.Equal(t, "0x14", fields["offset_hex"])
	require.Equal(t, int64(30), fields["length"])
	require.Equal(t, "0x1E", fields["length_hex"])

	require.Len(t, manifest.Chunks, 1)
	require.Equal(t, "20-ABCD_0x14.bin", manifest.Chunks[0].File)
}

func TestEmit_OutOfRange(t *testing.T) {
	data := make([]byte, 50)
	dir := t.TempDir()
	emitter := Emitter{Root: dir}
	bad := []ChunkRecord{
		{Offset: -1, Name: "ABCD", Length: 5},
		{Offset: 51, Name: "ABCD", Length: 0},
		{Offset: 40, Name: "ABCD", Length: 11},
		{Offset: 10, Name: "ABCD", Length: -1},
	}
	for _, record := range bad {
		_, err := emitter.Emit(data, record)
		var rerr *RangeError
		require.True(t, errors.As(err, &rerr), "record %v: expected RangeError, got %v", record, err)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestEmit_WriteError(t *testing.T) {
	emitter := Emitter{Root: filepath.Join(t.TempDir(), "missing")}
	_, err := emitter.Emit(make([]byte, 20), ChunkRecord{Offset: 0, Name: "ABCD", Length: 20})
	var werr *WriteError
	require.True(t, errors.As(err, &werr), "expected WriteError, got %v", err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestEmit_ReadOnlyRoot(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permissions not enforced")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0500))
	defer os.Chmod(dir, 0700)
	emitter := Emitter{Root: dir}
	_, err := emitter.Emit(make([]byte, 20), ChunkRecord{Offset: 0, Name: "ABCD", Length: 20})
	var werr *WriteError
	require.True(t, errors.As(err, &werr), "expected WriteError, got %v", err)
}

func TestEmit_Decoder(t *testing.T) {
	data, records := buildSave(t, 0, []testChunk{{"ABCD", 30}, {"FAIL", 20}})
	registry := NewDecoderRegistry()
	require.NoError(t, registry.Register("ABCD", DecoderFunc(func(r ChunkRecord, d []byte) (map[string]any, error) {
		return map[string]any{"size": len(d)}, nil
	})))
	require.NoError(t, registry.Register("FAIL", DecoderFunc(func(r ChunkRecord, d []byte) (map[string]any, error) {
		return nil, errors.New("nope")
	})))
	core, logs := observer.New(zapcore.DebugLevel)
	emitter := Emitter{Root: t.TempDir(), Logger: zap.New(core), Decoders: registry}

	for _, r := range records {
		_, err := emitter.Emit(data, r)
		require.NoError(t, err, "decoder failures must not fail the emit")
	}
	decoded := logs.FilterMessage("Decoded chunk").All()
	require.Len(t, decoded, 1)
	require.Equal(t, map[string]any{"size": 30}, decoded[0].ContextMap()["fields"])
	require.Len(t, logs.FilterMessage("Couldn't decode chunk").All(), 1)
}
