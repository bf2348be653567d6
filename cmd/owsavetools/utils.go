package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/randomouscrap98/owsavetools/savefile"
)

// Every command reports its result as json on stdout; diagnostics go to the log
func printJson(obj any) error {
	return writeJson(os.Stdout, obj)
}

func writeJson(w io.Writer, obj any) error {
	rawjson, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("couldn't serialize json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(rawjson))
	return err
}

// Get a filesafe datetime, condensed (local time)
func fileSafeDateTime() string {
	return time.Now().Format("20060102-150405")
}

// Json friendly view of a chunk record, with the hex forms people actually
// look for in a hex editor
type chunkJson struct {
	Name      string
	Offset    int
	OffsetHex string
	Length    int
	LengthHex string
	File      string `json:",omitempty"`
}

func toChunkJson(record savefile.ChunkRecord) chunkJson {
	return chunkJson{
		Name:      record.Name,
		Offset:    record.Offset,
		OffsetHex: fmt.Sprintf("0x%X", record.Offset),
		Length:    record.Length,
		LengthHex: fmt.Sprintf("0x%X", record.Length),
		File:      savefile.ArtifactName(record),
	}
}
