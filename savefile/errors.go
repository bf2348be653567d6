package savefile

import (
	"fmt"
)

// The container stream couldn't be inflated (bad header, bad checksum,
// truncated data). Always fatal, and always raised before scanning starts.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("couldn't decompress %s: %s", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// An offset or length computed by the scanner falls outside the buffer. This
// is a scanner logic fault, not a problem with the save data
type RangeError struct {
	Offset int
	Length int
	Size   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("PROGRAM ERROR: chunk range [%d, %d) outside buffer of %d bytes",
		e.Offset, e.Offset+e.Length, e.Size)
}

// An artifact couldn't be written to the output directory
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("couldn't write %s: %s", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// No input file could be located
type NotFoundError struct {
	What  string
	Where string
}

func (e *NotFoundError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("%s not found", e.What)
	}
	return fmt.Sprintf("%s not found in %s", e.What, e.Where)
}

// The buffer is too small to hold even a single marker
type NotEnoughDataError struct {
	Expected int
	Found    int
}

func (e *NotEnoughDataError) Error() string {
	return fmt.Sprintf("not enough data to scan: expected at least %d bytes, got %d", e.Expected, e.Found)
}
