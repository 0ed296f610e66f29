// Package config handles movedc.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "movedc.toml"

// Config represents a movedc.toml configuration.
type Config struct {
	Render    Render    `toml:"render"`
	Decompile Decompile `toml:"decompile"`
	Cache     Cache     `toml:"cache"`
	Log       Log       `toml:"log"`

	// Dir is the directory containing the movedc.toml file (set at load time).
	// Empty when the configuration is the built-in default.
	Dir string `toml:"-"`
}

// Render configures source output.
type Render struct {
	Indent  int  `toml:"indent"`
	Offsets bool `toml:"offsets"`
	Light   bool `toml:"light"`
}

// Decompile configures translation.
type Decompile struct {
	// Workers bounds concurrent function translations; 0 means GOMAXPROCS.
	Workers int `toml:"workers"`
}

// Cache configures the listing cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	// MaxAge drops listings older than this when the cache is opened;
	// 0 keeps them forever.
	MaxAge time.Duration `toml:"max_age"`
}

// Log configures logging.
type Log struct {
	// Verbosity is the commonlog verbosity: 0 errors only, 1 warnings,
	// 2 notices, 3 info, 4 debug.
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no movedc.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses a movedc.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a movedc.toml file,
// then loads and returns it. Returns the default configuration if no
// file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

// Validate rejects settings no listing can be produced with.
func (c *Config) Validate() error {
	if c.Render.Indent < 0 {
		return fmt.Errorf("render.indent must not be negative, got %d", c.Render.Indent)
	}
	if c.Decompile.Workers < 0 {
		return fmt.Errorf("decompile.workers must not be negative, got %d", c.Decompile.Workers)
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("cache.max_age must not be negative, got %s", c.Cache.MaxAge)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Render.Indent == 0 {
		c.Render.Indent = 4
	}
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(".movedc", "cache.db")
	}
}

// CachePath returns the cache database path, resolved against the
// directory of the configuration file.
func (c *Config) CachePath() string {
	if filepath.IsAbs(c.Cache.Path) || c.Dir == "" {
		return c.Cache.Path
	}
	return filepath.Join(c.Dir, c.Cache.Path)
}

// LogPath returns the log file path, or "" to log to stderr.
func (c *Config) LogPath() string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) || c.Dir == "" {
		return c.Log.File
	}
	return filepath.Join(c.Dir, c.Log.File)
}
