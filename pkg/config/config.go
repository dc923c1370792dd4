// Package config loads scenegraph settings.
//
// Settings are resolved in three layers, later layers winning:
//
//  1. [Default]
//  2. a TOML file, by default $XDG_CONFIG_HOME/scenegraph/config.toml
//  3. environment variables prefixed with SCENEGRAPH_
//
// A config file looks like:
//
//	[layout]
//	horizontal_spacing = 250
//	level_spacing = 200
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
// The matching environment overrides are SCENEGRAPH_LAYOUT_HORIZONTAL_SPACING,
// SCENEGRAPH_CACHE_BACKEND, SCENEGRAPH_CACHE_REDIS_URL and so on.
package config

import (
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SCENEGRAPH"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// Log formats.
const (
	LogText   = "text"
	LogJSON   = "json"
	LogLogfmt = "logfmt"
)

// Config holds every setting of the CLI and the server.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// LayoutConfig mirrors layout.Options.
type LayoutConfig struct {
	HorizontalSpacing float64 `toml:"horizontal_spacing" split_words:"true"`
	LevelSpacing      float64 `toml:"level_spacing" split_words:"true"`
	MaxDepth          int     `toml:"max_depth" split_words:"true"`
	StrictStart       bool    `toml:"strict_start" split_words:"true"`
}

// CacheConfig selects and configures the layout cache.
type CacheConfig struct {
	Backend  string        `toml:"backend"`
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url" split_words:"true"`
	Prefix   string        `toml:"prefix"`
	TTL      time.Duration `toml:"ttl"`
}

// StoreConfig selects and configures scenario persistence.
type StoreConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	MongoURI      string        `toml:"mongo_uri" split_words:"true"`
	MongoDatabase string        `toml:"mongo_database" split_words:"true"`
	Timeout       time.Duration `toml:"timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `toml:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" split_words:"true"`
	MaxBodyBytes    int64         `toml:"max_body_bytes" split_words:"true"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			HorizontalSpacing: layout.DefaultHorizontalSpacing,
			LevelSpacing:      layout.DefaultLevelSpacing,
			MaxDepth:          layout.DefaultMaxDepth,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     DefaultCacheDir(),
			TTL:     7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Backend:       StoreMemory,
			Dir:           filepath.Join(DefaultDataDir(), "scenarios"),
			MongoDatabase: "scenegraph",
			Timeout:       10 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    8 << 20,
		},
		Log: LogConfig{Level: "info", Format: LogText},
	}
}

// Load resolves the configuration.
//
// An empty path reads [DefaultPath] when it exists. An explicit path that
// does not exist is an error. Unknown keys in the file are rejected so that
// typos do not go unnoticed.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				err = nil
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidInput, err, "read %s_* environment", EnvPrefix)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if errors.Is(err, fs.ErrNotExist) {
		return sgerrors.Wrap(sgerrors.ErrCodeFileNotFound, err, "config file %s not found", path)
	}
	if err != nil {
		return sgerrors.Wrap(sgerrors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return sgerrors.New(sgerrors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	for _, v := range []float64{c.Layout.HorizontalSpacing, c.Layout.LevelSpacing} {
		if !(v > 0) || math.IsInf(v, 0) {
			return sgerrors.New(sgerrors.ErrCodeInvalidInput, "layout spacing must be a positive finite number, got %v", v)
		}
	}
	if c.Layout.MaxDepth <= 0 {
		return sgerrors.New(sgerrors.ErrCodeInvalidInput, "layout max_depth must be positive")
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return sgerrors.New(sgerrors.ErrCodeInvalidInput, "cache backend redis requires redis_url")
		}
	default:
		return sgerrors.New(sgerrors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return sgerrors.New(sgerrors.ErrCodeInvalidInput, "store backend mongo requires mongo_uri")
		}
	default:
		return sgerrors.New(sgerrors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return sgerrors.New(sgerrors.ErrCodeInvalidInput, "unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", LogText, LogJSON, LogLogfmt:
	default:
		return sgerrors.New(sgerrors.ErrCodeInvalidInput, "unknown log format %q", c.Log.Format)
	}
	return nil
}

// LayoutOptions converts the layout section to layout.Options.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		HorizontalSpacing: c.Layout.HorizontalSpacing,
		LevelSpacing:      c.Layout.LevelSpacing,
		MaxDepth:          c.Layout.MaxDepth,
		StrictStart:       c.Layout.StrictStart,
	}
}

// DefaultPath returns the default config file location, or "" when the
// user config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "scenegraph", "config.toml")
}

// DefaultCacheDir returns the default file cache directory.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "scenegraph")
	}
	return filepath.Join(os.TempDir(), "scenegraph-cache")
}

// DefaultDataDir returns the default directory for stored scenarios.
func DefaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".scenegraph")
	}
	return filepath.Join(os.TempDir(), "scenegraph")
}

// Write encodes c as TOML to path, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Encode(f)
}

// Encode writes c as TOML to w.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
