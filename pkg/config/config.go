// Package config loads the TOML configuration file controlling conversion,
// caching and export. Every field has a working default; a missing config
// file is not an error.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ekglab/ekgstore/pkg/errors"
)

// Cache backend names accepted in the config file.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full configuration tree.
type Config struct {
	Converter ConverterConfig `toml:"converter"`
	Cache     CacheConfig     `toml:"cache"`
	Output    OutputConfig    `toml:"output"`
	Export    ExportConfig    `toml:"export"`
}

// ConverterConfig controls the external PDF to SVG converter.
type ConverterConfig struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// CacheConfig selects and parameterizes the conversion cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

// OutputConfig controls where extraction results are written.
type OutputConfig struct {
	Dir string `toml:"dir"`
}

// ExportConfig holds the optional MongoDB sink. An empty URI disables it.
type ExportConfig struct {
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Converter: ConverterConfig{
			Binary:         "inkscape",
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			Dir:     defaultCacheDir(),
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Export: ExportConfig{
			MongoDatabase:   "ekgstore",
			MongoCollection: "extractions",
		},
	}
}

// DefaultPath returns the expected config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ekgstore", "config.toml")
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields Default(); a file that exists but does not
// parse, or that names an unknown cache backend, is an INVALID_INPUT error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"unknown cache backend %q (want %s, %s or %s)",
			c.Cache.Backend, BackendFile, BackendRedis, BackendNone)
	}
	if c.Converter.TimeoutSeconds <= 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			"converter timeout must be positive, got %d", c.Converter.TimeoutSeconds)
	}
	return nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".ekgstore-cache"
	}
	return filepath.Join(dir, "ekgstore")
}
