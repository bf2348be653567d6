package savefile

// Lua scripting for exploratory chunk decoders. A script registers decoders
// by name:
//
//	decoder("ABCD", function(chunk)
//	  return { count = u32le(chunk.data, 9) }
//	end)
//
// All byte positions given to helpers are 0 based, matching the offsets in
// hex dumps of the artifacts.

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// A loaded script. Owns the lua state, so Close it when done
type LuaScript struct {
	mu    sync.Mutex
	state *lua.LState
	names []string
}

// One decoder function defined inside a script
type luaDecoder struct {
	script *LuaScript
	fn     *lua.LFunction
}

func (d *luaDecoder) Decode(record ChunkRecord, data []byte) (map[string]any, error) {
	d.script.mu.Lock()
	defer d.script.mu.Unlock()
	L := d.script.state

	chunk := L.NewTable()
	chunk.RawSetString("name", lua.LString(record.Name))
	chunk.RawSetString("offset", lua.LNumber(record.Offset))
	chunk.RawSetString("length", lua.LNumber(record.Length))
	chunk.RawSetString("data", lua.LString(string(data)))

	err := L.CallByParam(lua.P{Fn: d.fn, NRet: 1, Protect: true}, chunk)
	if err != nil {
		return nil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	table, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("decoder for %s returned %s, expected table", record.Name, ret.Type())
	}
	result := make(map[string]any)
	table.ForEach(func(k lua.LValue, v lua.LValue) {
		result[k.String()] = luaEncodeValue(v)
	})
	return result, nil
}

// Convert a lua value back into plain go values (tables become maps,
// or slices when they are pure arrays)
func luaEncodeValue(value lua.LValue) any {
	switch converted := value.(type) {
	case lua.LBool:
		return bool(converted)
	case lua.LNumber:
		return float64(converted)
	case lua.LString:
		return string(converted)
	case *lua.LTable:
		if n := converted.Len(); n > 0 && converted.MaxN() == n {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, luaEncodeValue(converted.RawGetInt(i)))
			}
			return arr
		}
		tbl := make(map[string]any)
		converted.ForEach(func(k lua.LValue, v lua.LValue) {
			tbl[k.String()] = luaEncodeValue(v)
		})
		return tbl
	}
	return nil
}

// Pull a fixed size field out of the data string at the given position,
// raising a script error if it doesn't fit
func luaField(L *lua.LState, size int) ([]byte, int) {
	data := L.CheckString(1)
	pos := L.CheckInt(2)
	if pos < 0 || pos+size > len(data) {
		L.RaiseError("Read of %d bytes at %d outside data of %d bytes", size, pos, len(data))
		return nil, pos
	}
	return []byte(data[pos : pos+size]), pos
}

func luaU8(L *lua.LState) int {
	raw, _ := luaField(L, 1)
	L.Push(lua.LNumber(raw[0]))
	return 1
}

func luaU16le(L *lua.LState) int {
	raw, _ := luaField(L, 2)
	L.Push(lua.LNumber(binary.LittleEndian.Uint16(raw)))
	return 1
}

func luaU32le(L *lua.LState) int {
	raw, _ := luaField(L, 4)
	L.Push(lua.LNumber(binary.LittleEndian.Uint32(raw)))
	return 1
}

func luaI32le(L *lua.LState) int {
	raw, _ := luaField(L, 4)
	L.Push(lua.LNumber(int32(binary.LittleEndian.Uint32(raw))))
	return 1
}

// Read a length prefixed string (uint32 length, then that many bytes with
// the trailing NUL dropped). Returns the string and the position after it
func luaLString(L *lua.LState) int {
	raw, pos := luaField(L, 4)
	data := L.CheckString(1)
	length := int(binary.LittleEndian.Uint32(raw))
	start := pos + 4
	if length < 0 || start+length > len(data) {
		L.RaiseError("String of %d bytes at %d outside data of %d bytes", length, pos, len(data))
		return 0
	}
	str := data[start : start+length]
	if len(str) > 0 && str[len(str)-1] == 0 {
		str = str[:len(str)-1]
	}
	L.Push(lua.LString(str))
	L.Push(lua.LNumber(start + length))
	return 2
}

// Hex encode an entire string, for logging raw fields
func luaHexDump(L *lua.LState) int {
	L.Push(lua.LString(hex.EncodeToString([]byte(L.CheckString(1)))))
	return 1
}

func setBasicLuaFunctions(L *lua.LState) {
	L.SetGlobal("u8", L.NewFunction(luaU8))
	L.SetGlobal("u16le", L.NewFunction(luaU16le))
	L.SetGlobal("u32le", L.NewFunction(luaU32le))
	L.SetGlobal("i32le", L.NewFunction(luaI32le))
	L.SetGlobal("lstring", L.NewFunction(luaLString))
	L.SetGlobal("hexdump", L.NewFunction(luaHexDump))
}

// Run the script and register every decoder it defines into the registry.
// Nothing is registered if the script fails or any of its names are rejected
func LoadLuaDecoders(script string, registry *DecoderRegistry) (*LuaScript, error) {
	result := &LuaScript{state: lua.NewState()}
	L := result.state
	setBasicLuaFunctions(L)

	pending := make(map[string]*lua.LFunction)
	L.SetGlobal("decoder", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		fn := L.CheckFunction(2)
		if !validDecoderName(name) {
			L.RaiseError("Invalid chunk name for decoder: %q", name)
			return 0
		}
		if _, ok := pending[name]; ok {
			L.RaiseError("Decoder for %s defined twice", name)
			return 0
		}
		pending[name] = fn
		result.names = append(result.names, name)
		return 0
	}))

	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("couldn't run decoder script: %w", err)
	}
	decoders := make(map[string]Decoder, len(pending))
	for name, fn := range pending {
		decoders[name] = &luaDecoder{script: result, fn: fn}
	}
	if err := registry.RegisterAll(decoders); err != nil {
		L.Close()
		return nil, err
	}
	return result, nil
}

// Same as LoadLuaDecoders, reading the script from a file
func LoadLuaDecoderFile(path string, registry *DecoderRegistry) (*LuaScript, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadLuaDecoders(string(script), registry)
}

// Names of the decoders this script defined
func (s *LuaScript) Names() []string {
	return s.names
}

func (s *LuaScript) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Close()
}
