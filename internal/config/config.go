// Package config loads layerstack settings.
//
// Settings come from three places, later ones winning:
//  1. built-in defaults
//  2. a TOML file, by default $XDG_CONFIG_HOME/layerstack/config.toml
//  3. environment variables (a .env file in the working directory is read first)
//
// Example config.toml:
//
//	[server]
//	addr = ":3000"
//	data = "examples/samples/207296_model.json"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "30m"
//	prefix = "alice:"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[log]
//	level = "debug"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const appName = "layerstack"

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Defaults.
const (
	DefaultAddr     = ":3000"
	DefaultData     = "examples/samples/207296_model.json"
	DefaultCacheTTL = time.Hour
	DefaultLogLevel = "info"
	DefaultDatabase = "layerstack"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`

	// Path is the config file that was read, or "" if none was found.
	Path string `toml:"-"`
}

type ServerConfig struct {
	Addr string `toml:"addr" env:"LAYERSTACK_ADDR"`
	// Port overrides the port of Addr. Set from $PORT only.
	Port string `toml:"-" env:"PORT"`
	Data string `toml:"data" env:"LAYERSTACK_DATA"`
}

type CacheConfig struct {
	// Backend is file, redis, or none. Empty selects redis when RedisURL is
	// set and file otherwise.
	Backend  string        `toml:"backend" env:"LAYERSTACK_CACHE"`
	Dir      string        `toml:"dir" env:"LAYERSTACK_CACHE_DIR"`
	RedisURL string        `toml:"redis_url" env:"REDIS_URL"`
	TTL      time.Duration `toml:"ttl" env:"LAYERSTACK_CACHE_TTL"`

	// Prefix scopes every key, so several users can share one Redis.
	Prefix string `toml:"prefix" env:"LAYERSTACK_CACHE_PREFIX"`
}

type StoreConfig struct {
	// Backend is file or mongo. Empty selects mongo when MongoURI is set and
	// file otherwise.
	Backend  string `toml:"backend" env:"LAYERSTACK_STORE"`
	Dir      string `toml:"dir" env:"LAYERSTACK_SNAPSHOT_DIR"`
	MongoURI string `toml:"mongo_uri" env:"MONGODB_URI"`
	Database string `toml:"database" env:"MONGODB_DATABASE"`
}

type LogConfig struct {
	Level string `toml:"level" env:"LAYERSTACK_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: DefaultAddr, Data: DefaultData},
		Cache:  CacheConfig{TTL: DefaultCacheTTL},
		Store:  StoreConfig{Database: DefaultDatabase},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads the config file at path, applies environment overrides, and
// validates the result. An empty path reads [DefaultPath] if it exists; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		switch {
		case err == nil:
			cfg.Path = path
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := env.Load(cfg, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	cfg.resolve()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() {
	if c.Server.Port != "" {
		c.Server.Addr = ":" + c.Server.Port
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
		if c.Cache.RedisURL != "" {
			c.Cache.Backend = BackendRedis
		}
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
		if c.Store.MongoURI != "" {
			c.Store.Backend = BackendMongo
		}
	}
}

// Validate checks backend names, required URLs, and the log level.
func (c *Config) Validate() error {
	if !slices.Contains([]string{BackendFile, BackendRedis, BackendNone}, c.Cache.Backend) {
		return fmt.Errorf("cache.backend must be file, redis, or none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errors.New("cache.redis_url (or REDIS_URL) is required for the redis cache")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if !slices.Contains([]string{BackendFile, BackendMongo}, c.Store.Backend) {
		return fmt.Errorf("store.backend must be file or mongo, got %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendMongo && c.Store.MongoURI == "" {
		return errors.New("store.mongo_uri (or MONGODB_URI) is required for the mongo store")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Level returns the parsed log level, or info if it is invalid.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// CacheDir returns the file cache directory: cache.dir if set, otherwise
// the XDG cache directory (~/.cache/layerstack/).
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// DefaultPath returns $XDG_CONFIG_HOME/layerstack/config.toml, falling back
// to ~/.config/layerstack/config.toml.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
