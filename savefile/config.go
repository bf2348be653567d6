package savefile

import (
	"os"

	"github.com/pelletier/go-toml"
)

const (
	DefaultAppName  = "owsavetools"
	DefaultSaveName = "SaveGame.dat"
)

// Everything a discovery run can be configured with. Loaded from toml, then
// overridden by command line flags
type Config struct {
	SaveRoot   string `toml:"save_root"`   // Where to search for saves (default: the game's save folder)
	SaveName   string `toml:"save_name"`   // Which save file name to pick from the search
	OutputRoot string `toml:"output_root"` // Parent of the per-run working directory (default: temp dir)
	AppName    string `toml:"app_name"`    // Names the working directory and log file
	LogDir     string `toml:"log_dir"`     // Where the log file goes (default: current directory)
	Script     string `toml:"script"`      // Optional lua decoder script

	KeepUnmarked         bool `toml:"keep_unmarked"`           // Emit bytes before the first marker too
	ContinueOnWriteError bool `toml:"continue_on_write_error"` // Skip failed artifacts instead of stopping
	SkipRaw              bool `toml:"skip_raw"`                // Don't copy the decompressed buffer into the working directory
}

func (c *Config) ReasonableDefaults() {
	if c.SaveName == "" {
		c.SaveName = DefaultSaveName
	}
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.OutputRoot == "" {
		c.OutputRoot = os.TempDir()
	}
	if c.SaveRoot == "" {
		c.SaveRoot = DefaultSaveRoot()
	}
}

func (c *Config) ScanOptions() ScanOptions {
	return ScanOptions{KeepUnmarked: c.KeepUnmarked}
}

func ParseConfig(data []byte) (Config, error) {
	var result Config
	err := toml.Unmarshal(data, &result)
	return result, err
}

// Load the config from a toml file. An empty path just gives the defaults
func LoadConfig(path string) (Config, error) {
	var result Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return result, err
		}
		result, err = ParseConfig(data)
		if err != nil {
			return result, err
		}
	}
	result.ReasonableDefaults()
	return result, nil
}
