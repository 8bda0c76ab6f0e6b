package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pngsquare/pkg/pipeline"
)

// configFile is the config file name inside configDir.
const configFile = "config.toml"

// Config holds tool defaults. Command-line flags override every field.
//
//	formats   = ["png", "c", "json"]
//	jobs      = 4
//	cache_ttl = "72h"
//
//	[serve]
//	addr  = ":9000"
//	redis = "localhost:6379"
//	mongo = "mongodb://localhost:27017"
type Config struct {
	Formats  []string      `toml:"formats"`
	Jobs     int           `toml:"jobs"`
	CacheTTL time.Duration `toml:"cache_ttl"`
	Serve    ServeConfig   `toml:"serve"`
}

// ServeConfig holds defaults for the serve command.
type ServeConfig struct {
	Addr  string `toml:"addr"`
	Redis string `toml:"redis"`
	Mongo string `toml:"mongo"`
	Store string `toml:"store"` // atlas directory for the file store
}

// loadConfig reads the config at path. An empty path means the default
// location, which may be missing; an explicit path must exist.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return &Config{}, nil
		}
		path = filepath.Join(dir, configFile)
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if err := pipeline.ValidateFormats(c.Formats); err != nil {
		return err
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	return nil
}
