package savefile

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Result of a discovery run
type Discovery struct {
	WorkingDirectory string
	RawPath          string // Copy of the decompressed buffer (empty when skipped)
	ManifestPath     string
	Length           int // Decompressed size
	Artifacts        []WrittenArtifact
	Failed           []ChunkRecord // Only filled when continuing past write errors
}

// Make a fresh, uniquely named working directory for one run
func NewWorkingDirectory(root string, app string) (string, error) {
	dir := filepath.Join(root, app, uuid.New().String())
	if err := os.MkdirAll(dir, 0770); err != nil {
		return "", &WriteError{Path: dir, Err: err}
	}
	return dir, nil
}

// Decompress the save at input, then scan it and write every chunk into a
// new working directory. Decompression happens before anything touches the
// disk, so a bad save leaves nothing behind.
//
// By default the first artifact that can't be written stops the run. With
// ContinueOnWriteError the failed chunks are skipped and all write errors are
// returned together at the end, along with the partial result.
func Discover(ctx context.Context, input string, config Config, decoders *DecoderRegistry,
	logger *zap.Logger) (*Discovery, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ReasonableDefaults()

	buffer, err := DecompressFile(input)
	if err != nil {
		return nil, err
	}
	logger.Info("Decompressed save", zap.String("file", input), zap.Int("length", len(buffer)))
	if len(buffer) < MarkerLength {
		return nil, &NotEnoughDataError{Expected: MarkerLength, Found: len(buffer)}
	}

	dir, err := NewWorkingDirectory(config.OutputRoot, config.AppName)
	if err != nil {
		return nil, err
	}
	logger.Info("Created working directory", zap.String("dir", dir))

	result := &Discovery{
		WorkingDirectory: dir,
		Length:           len(buffer),
		Artifacts:        make([]WrittenArtifact, 0),
	}
	manifest := NewManifest(input, buffer)

	if !config.SkipRaw {
		result.RawPath = filepath.Join(dir, filepath.Base(input))
		if err = os.WriteFile(result.RawPath, buffer, 0644); err != nil {
			return result, &WriteError{Path: result.RawPath, Err: err}
		}
		manifest.RawFile = filepath.Base(result.RawPath)
	}

	emitter := Emitter{
		Root:     dir,
		Logger:   logger,
		Manifest: manifest,
		Decoders: decoders,
	}

	emitted, err := EmitAll(ctx, buffer, config.ScanOptions(), &emitter, config.ContinueOnWriteError)
	result.Artifacts = emitted.Artifacts
	result.Failed = emitted.Failed
	if err != nil {
		return result, err
	}
	for _, record := range result.Failed {
		manifest.Failed = append(manifest.Failed, ArtifactName(record))
	}

	result.ManifestPath, err = manifest.Save(dir)
	writeErrs := multierr.Append(emitted.WriteErrors, err)

	logger.Info("Finished discovery", zap.Int("chunks", len(result.Artifacts)),
		zap.Int("failed", len(result.Failed)), zap.String("dir", dir))
	return result, writeErrs
}

// What EmitAll managed to write, and what it skipped
type EmitResult struct {
	Artifacts   []WrittenArtifact
	Failed      []ChunkRecord
	WriteErrors error // Every skipped write, combined
}

// Scan the buffer and emit every chunk. Any error that stops the scan is
// returned directly. When continuing past write errors, skipped chunks end up
// in Failed and WriteErrors instead, and the scan carries on
func EmitAll(ctx context.Context, buffer []byte, options ScanOptions, emitter *Emitter,
	continueOnWriteError bool) (EmitResult, error) {
	result := EmitResult{Artifacts: make([]WrittenArtifact, 0)}
	err := ScanFunc(buffer, options, func(record ChunkRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		artifact, err := emitter.Emit(buffer, record)
		if err == nil {
			result.Artifacts = append(result.Artifacts, artifact)
			return nil
		}
		var werr *WriteError
		if errors.As(err, &werr) && continueOnWriteError {
			emitter.logger().Warn("Skipping chunk", zap.String("name", record.Name),
				zap.Int("offset", record.Offset), zap.Error(err))
			result.Failed = append(result.Failed, record)
			result.WriteErrors = multierr.Append(result.WriteErrors, err)
			return nil
		}
		return err
	})
	return result, err
}
