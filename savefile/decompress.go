package savefile

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/zlib"
)

// Fully inflate a zlib container. Anything wrong with the stream (header,
// checksum, truncation) comes back as a *DecodeError
func Decompress(source io.Reader) ([]byte, error) {
	zr, err := zlib.NewReader(source)
	if err != nil {
		return nil, &DecodeError{Source: "stream", Err: err}
	}
	defer zr.Close()
	var result bytes.Buffer
	if _, err = io.Copy(&result, zr); err != nil {
		return nil, &DecodeError{Source: "stream", Err: err}
	}
	return result.Bytes(), nil
}

// Open and decompress the save at the given path
func DecompressFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{What: "save file " + path}
		}
		return nil, err
	}
	defer file.Close()
	data, err := Decompress(file)
	if err != nil {
		var derr *DecodeError
		if errors.As(err, &derr) {
			derr.Source = path
		}
		return nil, err
	}
	return data, nil
}

// Compress data into a zlib container, the reverse of Decompress. Used for
// producing synthetic saves
func Compress(data []byte, w io.Writer) error {
	zw := zlib.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
