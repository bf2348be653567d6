package savefile

import (
	"fmt"
	"slices"
	"sync"
)

// Interprets the bytes of one chunk. The save format is unknown, so nothing
// is registered by default; decoders get added as chunk layouts are figured out
type Decoder interface {
	Decode(record ChunkRecord, data []byte) (map[string]any, error)
}

// Adapter so plain functions can be registered
type DecoderFunc func(record ChunkRecord, data []byte) (map[string]any, error)

func (f DecoderFunc) Decode(record ChunkRecord, data []byte) (map[string]any, error) {
	return f(record, data)
}

// Decoders keyed by four letter chunk name
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[string]Decoder)}
}

func validDecoderName(name string) bool {
	return len(name) == MarkerNameLength-1 && IsChunkMarker(append([]byte(name), 0))
}

// Must hold the lock
func (r *DecoderRegistry) checkName(name string) error {
	if !validDecoderName(name) {
		return fmt.Errorf("invalid chunk name for decoder: %q", name)
	}
	if _, ok := r.decoders[name]; ok {
		return fmt.Errorf("decoder already registered for %s", name)
	}
	return nil
}

// Register a decoder for the given chunk name. Names must look like real
// marker names, and each name can only be registered once
func (r *DecoderRegistry) Register(name string, decoder Decoder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkName(name); err != nil {
		return err
	}
	r.decoders[name] = decoder
	return nil
}

// Register several decoders at once. Either all of them are added or, if any
// name is rejected, none are
func (r *DecoderRegistry) RegisterAll(decoders map[string]Decoder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := r.checkName(name); err != nil {
			return err
		}
	}
	for _, name := range names {
		r.decoders[name] = decoders[name]
	}
	return nil
}

func (r *DecoderRegistry) Lookup(name string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decoder, ok := r.decoders[name]
	return decoder, ok
}

// All registered chunk names, sorted
func (r *DecoderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, 0, len(r.decoders))
	for name := range r.decoders {
		result = append(result, name)
	}
	slices.Sort(result)
	return result
}
