package main

// Writes a synthetic, zlib compressed save with known chunk markers, for
// trying out the scanner without a real game save.

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kong"

	"github.com/randomouscrap98/owsavetools/savefile"
)

var cli struct {
	Outfile string   `arg:"" type:"path" help:"Where to write the fake save"`
	Names   []string `arg:"" optional:"" help:"Chunk names, in order (default: ABCD WXYZ)"`
	Size    int      `default:"64" help:"Size of each chunk, marker included"`
	Leading int      `default:"20" help:"Bytes of filler before the first marker"`
	Raw     bool     `help:"Don't compress the output"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("fakesave"),
		kong.Description("Generate a synthetic save for testing"),
	)
	if len(cli.Names) == 0 {
		cli.Names = []string{"ABCD", "WXYZ"}
	}
	if cli.Size < savefile.MarkerLength {
		log.Fatalf("Size must be at least %d", savefile.MarkerLength)
	}

	var data bytes.Buffer
	// Write very obvious data: constantly increasing values, skipping the
	// marker prefix so no accidental markers appear
	fill := func(length int) {
		for i := 0; i < length; i++ {
			b := byte(i & 0xFF)
			if b == savefile.MarkerPrefix {
				b = 0
			}
			data.WriteByte(b)
		}
	}
	fill(cli.Leading)
	for _, name := range cli.Names {
		marker := append([]byte(name), 0)
		if len(name) != savefile.MarkerNameLength-1 || !savefile.IsChunkMarker(marker) {
			log.Fatalf("Not a valid chunk name: %q", name)
		}
		data.Write(savefile.MakeMarker(name))
		fill(cli.Size - savefile.MarkerLength)
	}

	file, err := os.Create(cli.Outfile)
	if err != nil {
		log.Fatalf("Couldn't create %s: %s", cli.Outfile, err)
	}
	defer file.Close()

	if cli.Raw {
		_, err = file.Write(data.Bytes())
	} else {
		err = savefile.Compress(data.Bytes(), file)
	}
	if err != nil {
		log.Fatalf("Couldn't write %s: %s", cli.Outfile, err)
	}

	fmt.Printf("Wrote %d chunks (%d bytes uncompressed) to %s\n", len(cli.Names), data.Len(), cli.Outfile)
}
