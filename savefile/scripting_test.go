package savefile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecoderRegistry(t *testing.T) {
	registry := NewDecoderRegistry()
	noop := DecoderFunc(func(ChunkRecord, []byte) (map[string]any, error) { return nil, nil })
	require.NoError(t, registry.Register("WXYZ", noop))
	require.NoError(t, registry.Register("ABCD", noop))
	require.Error(t, registry.Register("ABCD", noop), "duplicate")
	require.Error(t, registry.Register("abcd", noop), "lowercase")
	require.Error(t, registry.Register("ABCDE", noop), "too long")
	require.Error(t, registry.Register("ABC", noop), "too short")

	require.Equal(t, []string{"ABCD", "WXYZ"}, registry.Names())
	_, ok := registry.Lookup("ABCD")
	require.True(t, ok)
	_, ok = registry.Lookup("QQQQ")
	require.False(t, ok)
}

func TestLuaDecoder(t *testing.T) {
	script := `
decoder("ABCD", function(chunk)
  local label, after = lstring(chunk.data, 13)
  return {
    name = chunk.name,
    offset = chunk.offset,
    count = u32le(chunk.data, 9),
    label = label,
    flag = u8(chunk.data, after),
  }
end)
`
	registry := NewDecoderRegistry()
	lscript, err := LoadLuaDecoders(script, registry)
	require.NoError(t, err)
	defer lscript.Close()
	require.Equal(t, []string{"ABCD"}, lscript.Names())

	var buf bytes.Buffer
	buf.Write(MakeMarker("ABCD"))
	binary.Write(&buf, binary.LittleEndian, uint32(42))
	binary.Write(&buf, binary.LittleEndian, uint32(6))
	buf.WriteString("hello\x00")
	buf.WriteByte(7)

	decoder, ok := registry.Lookup("ABCD")
	require.True(t, ok)
	fields, err := decoder.Decode(ChunkRecord{Offset: 100, Name: "ABCD", Length: buf.Len()}, buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"name":   "ABCD",
		"offset": float64(100),
		"count":  float64(42),
		"label":  "hello",
		"flag":   float64(7),
	}, fields)
}

func TestLuaDecoder_OutOfRange(t *testing.T) {
	registry := NewDecoderRegistry()
	lscript, err := LoadLuaDecoders(`decoder("ABCD", function(c) return { x = u32le(c.data, 100) } end)`, registry)
	require.NoError(t, err)
	defer lscript.Close()
	decoder, _ := registry.Lookup("ABCD")
	_, err = decoder.Decode(ChunkRecord{Name: "ABCD", Length: MarkerLength}, MakeMarker("ABCD"))
	require.Error(t, err)
}

func TestLuaDecoder_NotTable(t *testing.T) {
	registry := NewDecoderRegistry()
	lscript, err := LoadLuaDecoders(`decoder("ABCD", function(c) return 5 end)`, registry)
	require.NoError(t, err)
	defer lscript.Close()
	decoder, _ := registry.Lookup("ABCD")
	_, err = decoder.Decode(ChunkRecord{Name: "ABCD"}, MakeMarker("ABCD"))
	require.Error(t, err)
}

func TestLoadLuaDecoders_BadScript(t *testing.T) {
	registry := NewDecoderRegistry()
	_, err := LoadLuaDecoders(`decoder("ABCD", function(c) return {} end) this is not lua`, registry)
	require.Error(t, err)
	require.Empty(t, registry.Names())

	_, err = LoadLuaDecoders(`decoder("ABCD", function(c) return {} end) decoder("ABCD", function(c) return {} end)`, registry)
	require.Error(t, err)
	require.Empty(t, registry.Names())

	// A valid name followed by an invalid one leaves nothing behind
	_, err = LoadLuaDecoders(`decoder("AAAA", function(c) return {} end) decoder("abcd", function(c) return {} end)`, registry)
	require.Error(t, err)
	require.Empty(t, registry.Names())
	_, ok := registry.Lookup("AAAA")
	require.False(t, ok)
}

func TestLuaEncodeValue_Array(t *testing.T) {
	registry := NewDecoderRegistry()
	lscript, err := LoadLuaDecoders(`decoder("LIST", function(c) return { items = {1, 2, 3}, hex = hexdump("AB") } end)`, registry)
	require.NoError(t, err)
	defer lscript.Close()
	decoder, _ := registry.Lookup("LIST")
	fields, err := decoder.Decode(ChunkRecord{Name: "LIST"}, nil)
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), float64(2), float64(3)}, fields["items"])
	require.Equal(t, "4142", fields["hex"])
}

func TestLuaDecoder_ChunkIsPlainTable(t *testing.T) {
	registry := NewDecoderRegistry()
	lscript, err := LoadLuaDecoders(`decoder("ABCD", function(c)
  return { plain = (getmetatable(c) == nil), size = #c.data }
end)`, registry)
	require.NoError(t, err)
	defer lscript.Close()
	decoder, _ := registry.Lookup("ABCD")
	fields, err := decoder.Decode(ChunkRecord{Name: "ABCD", Length: MarkerLength}, MakeMarker("ABCD"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"plain": true, "size": float64(MarkerLength)}, fields)
}

func TestLoadLuaDecoders_AllOrNothing(t *testing.T) {
	registry := NewDecoderRegistry()
	noop := DecoderFunc(func(ChunkRecord, []byte) (map[string]any, error) { return nil, nil })
	require.NoError(t, registry.Register("BBBB", noop))

	// A later name clashing with an existing registration rejects the whole script
	_, err := LoadLuaDecoders(`
decoder("AAAA", function(c) return {} end)
decoder("BBBB", function(c) return {} end)
decoder("CCCC", function(c) return {} end)`, registry)
	require.Error(t, err)
	require.Equal(t, []string{"BBBB"}, registry.Names())
	_, ok := registry.Lookup("AAAA")
	require.False(t, ok)

	// The original registration is untouched and still usable
	decoder, ok := registry.Lookup("BBBB")
	require.True(t, ok)
	_, err = decoder.Decode(ChunkRecord{Name: "BBBB"}, nil)
	require.NoError(t, err)
}

func TestDecoderRegistry_RegisterAll(t *testing.T) {
	registry := NewDecoderRegistry()
	noop := DecoderFunc(func(ChunkRecord, []byte) (map[string]any, error) { return nil, nil })
	require.Error(t, registry.RegisterAll(map[string]Decoder{"ABCD": noop, "bad!": noop}))
	require.Empty(t, registry.Names())
	require.NoError(t, registry.RegisterAll(map[string]Decoder{"ABCD": noop, "WXYZ": noop}))
	require.Equal(t, []string{"ABCD", "WXYZ"}, registry.Names())
}
