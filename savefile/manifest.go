package savefile

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

const (
	ManifestFile = "manifest.toml"
)

type ManifestChunk struct {
	Offset int    `toml:"offset"`
	Name   string `toml:"name"`
	Length int    `toml:"length"`
	File   string `toml:"file"`
	Blake3 string `toml:"blake3"`
}

// Summary of a single discovery run, written next to the artifacts so the
// directory can be understood without the log
type Manifest struct {
	Source    string          `toml:"source"`
	RawFile   string          `toml:"raw_file"`
	RawLength int             `toml:"raw_length"`
	RawBlake3 string          `toml:"raw_blake3"`
	Failed    []string        `toml:"failed,omitempty"`
	Chunks    []ManifestChunk `toml:"chunks"`
}

func NewManifest(source string, raw []byte) *Manifest {
	return &Manifest{
		Source:    source,
		RawLength: len(raw),
		RawBlake3: blake3String(raw),
		Chunks:    make([]ManifestChunk, 0),
	}
}

func (m *Manifest) Add(artifact WrittenArtifact) {
	m.Chunks = append(m.Chunks, ManifestChunk{
		Offset: artifact.Record.Offset,
		Name:   artifact.Record.Name,
		Length: artifact.Record.Length,
		File:   filepath.Base(artifact.Path),
		Blake3: artifact.Blake3,
	})
}

func (m *Manifest) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Order(toml.OrderPreserve).Encode(m)
}

// Write the manifest as ManifestFile inside the given directory
func (m *Manifest) Save(directory string) (string, error) {
	path := filepath.Join(directory, ManifestFile)
	file, err := os.Create(path)
	if err != nil {
		return path, &WriteError{Path: path, Err: err}
	}
	defer file.Close()
	if err = m.Encode(file); err != nil {
		return path, &WriteError{Path: path, Err: err}
	}
	return path, nil
}

func ReadManifest(r io.Reader) (*Manifest, error) {
	var result Manifest
	if err := toml.NewDecoder(r).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
