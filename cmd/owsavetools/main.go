package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/randomouscrap98/owsavetools/savefile"
)

const (
	AppVersion = "0.1.0"
)

// Shared state handed to every command's Run
type runEnv struct {
	Config savefile.Config
	Logger *zap.Logger
}

// Quick way to fail before the logger exists
func fatalIfErr(subject string, doing string, err error) {
	if err != nil {
		log.Fatalf("%s - Couldn't %s: %s", subject, doing, err)
	}
}

// Use the given file, or go find the first save in the configured folder
func resolveSave(env *runEnv, infile string) (string, error) {
	if infile != "" {
		return infile, nil
	}
	save, err := savefile.FirstSaveFile(env.Config.SaveRoot, env.Config.SaveName)
	if err != nil {
		return "", err
	}
	env.Logger.Info("Found save file", zap.String("file", save))
	return save, nil
}

// **********************************
// *       DISCOVERY COMMANDS       *
// **********************************

// Discover command: the whole pipeline, writing artifacts
type DiscoverCmd struct {
	Infile               string `arg:"" optional:"" type:"existingfile" help:"Save file to process (default: first save found in the save folder)"`
	Outroot              string `type:"path" short:"o" help:"Parent folder for the working directory (default: temp dir)"`
	Script               string `type:"existingfile" short:"s" help:"Lua script defining chunk decoders"`
	KeepUnmarked         bool   `help:"Also write the bytes before the first marker"`
	ContinueOnWriteError bool   `help:"Skip chunks that can't be written instead of stopping"`
	SkipRaw              bool   `help:"Don't copy the decompressed save into the working directory"`
}

func (c *DiscoverCmd) Run(env *runEnv) error {
	config := env.Config
	if c.Outroot != "" {
		config.OutputRoot = c.Outroot
	}
	if c.Script != "" {
		config.Script = c.Script
	}
	config.KeepUnmarked = config.KeepUnmarked || c.KeepUnmarked
	config.ContinueOnWriteError = config.ContinueOnWriteError || c.ContinueOnWriteError
	config.SkipRaw = config.SkipRaw || c.SkipRaw

	input, err := resolveSave(env, c.Infile)
	if err != nil {
		return err
	}

	var decoders *savefile.DecoderRegistry
	if config.Script != "" {
		decoders = savefile.NewDecoderRegistry()
		script, err := savefile.LoadLuaDecoderFile(config.Script, decoders)
		if err != nil {
			return fmt.Errorf("couldn't load decoder script %s: %w", config.Script, err)
		}
		defer script.Close()
		env.Logger.Info("Loaded decoders", zap.String("script", config.Script), zap.Strings("names", script.Names()))
	}

	discovery, err := savefile.Discover(context.Background(), input, config, decoders, env.Logger)
	if discovery != nil {
		chunks := make([]chunkJson, 0, len(discovery.Artifacts))
		for _, a := range discovery.Artifacts {
			chunks = append(chunks, toChunkJson(a.Record))
		}
		failed := make([]chunkJson, 0, len(discovery.Failed))
		for _, r := range discovery.Failed {
			failed = append(failed, toChunkJson(r))
		}
		result := make(map[string]interface{})
		result["Infile"] = input
		result["WorkingDirectory"] = discovery.WorkingDirectory
		result["RawFile"] = discovery.RawPath
		result["Manifest"] = discovery.ManifestPath
		result["Length"] = discovery.Length
		result["Chunks"] = chunks
		result["Failed"] = failed
		if perr := printJson(result); perr != nil {
			return perr
		}
	}
	return err
}

// Scan command: report chunks without writing anything
type ScanCmd struct {
	Infile       string `arg:"" optional:"" type:"existingfile" help:"Save file to scan (default: first save found in the save folder)"`
	KeepUnmarked bool   `help:"Also report the bytes before the first marker"`
}

func (c *ScanCmd) Run(env *runEnv) error {
	input, err := resolveSave(env, c.Infile)
	if err != nil {
		return err
	}
	buffer, err := savefile.DecompressFile(input)
	if err != nil {
		return err
	}
	options := env.Config.ScanOptions()
	options.KeepUnmarked = options.KeepUnmarked || c.KeepUnmarked
	records, err := savefile.Scan(buffer, options)
	if err != nil {
		return err
	}
	env.Logger.Info("Scanned save", zap.String("file", input), zap.Int("length", len(buffer)),
		zap.Int("chunks", len(records)))
	chunks := make([]chunkJson, 0, len(records))
	for _, r := range records {
		chunks = append(chunks, toChunkJson(r))
	}
	result := make(map[string]interface{})
	result["Infile"] = input
	result["Length"] = len(buffer)
	result["MD5"] = savefile.Md5String(buffer)
	result["Chunks"] = chunks
	return printJson(result)
}

// **********************************
// *       SAVE FILE COMMANDS       *
// **********************************

// Locate command: list every save we can find
type LocateCmd struct {
	Root string `arg:"" optional:"" type:"path" help:"Folder to search (default: the game's save folder)"`
}

func (c *LocateCmd) Run(env *runEnv) error {
	root := c.Root
	if root == "" {
		root = env.Config.SaveRoot
	}
	saves, err := savefile.FindSaveFiles(root)
	if err != nil {
		return err
	}
	env.Logger.Info("Located saves", zap.String("root", root), zap.Int("count", len(saves)))
	result := make(map[string]interface{})
	result["Root"] = root
	result["Saves"] = saves
	return printJson(result)
}

// Decompress command: just inflate the save, nothing else
type DecompressCmd struct {
	Infile  string `arg:"" type:"existingfile" help:"Save file to decompress"`
	Outfile string `type:"path" short:"o"`
}

func (c *DecompressCmd) Run(env *runEnv) error {
	if c.Outfile == "" {
		c.Outfile = fmt.Sprintf("decompressed_%s.bin", fileSafeDateTime())
	}
	buffer, err := savefile.DecompressFile(c.Infile)
	if err != nil {
		return err
	}
	if err = os.WriteFile(c.Outfile, buffer, 0644); err != nil {
		return &savefile.WriteError{Path: c.Outfile, Err: err}
	}
	env.Logger.Info("Wrote decompressed save", zap.String("file", c.Outfile), zap.Int("length", len(buffer)))
	result := make(map[string]interface{})
	result["Infile"] = c.Infile
	result["Outfile"] = c.Outfile
	result["Length"] = len(buffer)
	result["MD5"] = savefile.Md5String(buffer)
	return printJson(result)
}

// **********************************
// *    ALL TOGETHER COMMANDS       *
// **********************************

var cli struct {
	Discover   DiscoverCmd   `cmd:"" default:"withargs" help:"Decompress a save, find its chunks and write each one out (default)"`
	Scan       ScanCmd       `cmd:"" help:"Decompress a save and list its chunks without writing anything"`
	Locate     LocateCmd     `cmd:"" help:"List all save files in the save folder"`
	Decompress DecompressCmd `cmd:"" help:"Decompress a save to a raw .bin file"`

	Config   string           `type:"existingfile" short:"c" help:"TOML config file"`
	Logdir   string           `type:"path" help:"Folder for the log file (default: current directory)"`
	Saveroot string           `type:"path" help:"Folder to search for saves"`
	Version  kong.VersionFlag `help:"Show version information"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name(savefile.DefaultAppName),
		kong.ShortUsageOnError(),
		kong.Description("Tools for poking at undocumented Outer Worlds save files"),
		kong.Vars{
			"version": AppVersion,
		},
	)

	config, err := savefile.LoadConfig(cli.Config)
	fatalIfErr(cli.Config, "load config", err)
	if cli.Logdir != "" {
		config.LogDir = cli.Logdir
	}
	if cli.Saveroot != "" {
		config.SaveRoot = cli.Saveroot
	}

	logger, logPath, closeLog, err := savefile.NewLogger(config.LogDir, config.AppName)
	fatalIfErr(config.LogDir, "create log file", err)
	logger.Debug("Log file", zap.String("path", logPath))

	err = ctx.Run(&runEnv{Config: config, Logger: logger})
	if err != nil {
		logger.Error("Run failed", zap.String("command", ctx.Command()), zap.Error(err))
	}
	closeLog()
	ctx.FatalIfErrorf(err)
}
