// Package config loads the engine's startup configuration from a TOML file:
// buffer-pool/log sizing, lock timeouts, the data directory, and the
// session-level enable_nestloop/enable_sortmerge/enable_output_file
// defaults from §6.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the raw TOML document shape.
type fileConfig struct {
	Engine  engineConfig   `toml:"engine"`
	Session *sessionConfig `toml:"session"`
}

type engineConfig struct {
	DataDir         string `toml:"data_dir"`
	BufferPoolPages int    `toml:"buffer_pool_pages"`
	LogFlushMillis  int    `toml:"log_flush_millis"`
	LockWaitMillis  int    `toml:"lock_wait_millis"`
}

type sessionConfig struct {
	EnableNestloop   *bool `toml:"enable_nestloop"`
	EnableSortmerge  *bool `toml:"enable_sortmerge"`
	EnableOutputFile *bool `toml:"enable_output_file"`
}

// Config is the resolved, typed configuration the engine runs with.
type Config struct {
	DataDir          string
	BufferPoolPages  int
	LogFlushInterval time.Duration
	LockWaitTimeout  time.Duration

	EnableNestloop   bool
	EnableSortmerge  bool
	EnableOutputFile bool
}

// Default returns the engine's built-in defaults, used when no config file
// is given.
func Default() Config {
	return Config{
		DataDir:          "./data",
		BufferPoolPages:  1024,
		LogFlushInterval: 500 * time.Millisecond,
		LockWaitTimeout:  5 * time.Second,
		EnableNestloop:   true,
		EnableSortmerge:  true,
		EnableOutputFile: false,
	}
}

// Load reads and decodes a TOML config file, filling in Default() for any
// field the file leaves unset.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes TOML config content from r.
func Parse(r io.Reader) (Config, error) {
	var fc fileConfig
	if _, err := toml.NewDecoder(r).Decode(&fc); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	cfg := Default()
	if fc.Engine.DataDir != "" {
		cfg.DataDir = fc.Engine.DataDir
	}
	if fc.Engine.BufferPoolPages != 0 {
		cfg.BufferPoolPages = fc.Engine.BufferPoolPages
	}
	if fc.Engine.LogFlushMillis != 0 {
		cfg.LogFlushInterval = time.Duration(fc.Engine.LogFlushMillis) * time.Millisecond
	}
	if fc.Engine.LockWaitMillis != 0 {
		cfg.LockWaitTimeout = time.Duration(fc.Engine.LockWaitMillis) * time.Millisecond
	}
	if fc.Session != nil {
		if fc.Session.EnableNestloop != nil {
			cfg.EnableNestloop = *fc.Session.EnableNestloop
		}
		if fc.Session.EnableSortmerge != nil {
			cfg.EnableSortmerge = *fc.Session.EnableSortmerge
		}
		if fc.Session.EnableOutputFile != nil {
			cfg.EnableOutputFile = *fc.Session.EnableOutputFile
		}
	}
	return cfg, nil
}
