// Package config loads graphopt settings from a TOML file.
//
// A complete file looks like:
//
//	[optimizer]
//	disable = ["merge_duplication"]
//
//	[cache]
//	backend = "redis"        # "file" (default), "redis" or "none"
//	dir = "/var/cache/graphopt"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//
//	[log]
//	level = "debug"
//
// Every key is optional; [Default] supplies the rest. Unknown keys are
// rejected so typos do not silently fall back to defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/graphopt/pkg/errors"
	"github.com/matzehuels/graphopt/pkg/optimizer"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full configuration.
type Config struct {
	Optimizer Optimizer `toml:"optimizer"`
	Cache     Cache     `toml:"cache"`
	Server    Server    `toml:"server"`
	Log       Log       `toml:"log"`
}

// Optimizer selects passes.
type Optimizer struct {
	// Disable names passes to skip. The remaining passes keep their order.
	Disable []string `toml:"disable"`
}

// Cache selects and configures the result cache.
type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	TTL           Duration `toml:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string such as "90m" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration: every default pass enabled,
// file cache for a day, server on :8080, info logging.
func Default() Config {
	return Config{
		Cache: Cache{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       Duration{24 * time.Hour},
		},
		Server: Server{Addr: ":8080"},
		Log:    Log{Level: "info"},
	}
}

// Load reads the TOML file at path over [Default] and validates the result.
func Load(path string) (Config, error) {
	if err := errs.ValidatePath(path); err != nil {
		return Config{}, err
	}
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, errs.Wrap(errs.ErrCodeNotFound, err, "config file %s", path)
	}
	if err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOptional is [Load] except that a missing file yields [Default].
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errs.Is(err, errs.ErrCodeNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks field values. Pass names are checked for syntax only;
// [Config.Registry] checks them against a registry.
func (c Config) Validate() error {
	for _, name := range c.Optimizer.Disable {
		if err := errs.ValidatePassName(name); err != nil {
			return err
		}
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "cache.backend %q: want file, redis or none", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Server.Addr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "server.addr must not be empty")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInvalidConfig, err, "log.level")
	}
	return lvl, nil
}

// Registry returns base without the disabled passes, preserving order.
// Disabling a pass base does not contain is an error.
func (c Config) Registry(base optimizer.Registry) (optimizer.Registry, error) {
	names := base.Names()
	for _, name := range c.Optimizer.Disable {
		if !slices.Contains(names, name) {
			return nil, errs.New(errs.ErrCodeInvalidConfig, "cannot disable unknown pass %q (known: %s)",
				name, strings.Join(names, ", "))
		}
	}
	return base.Without(c.Optimizer.Disable...), nil
}

// String renders the configuration as TOML.
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
