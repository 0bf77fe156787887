// Package cli implements the graphopt command-line interface.
//
// # Commands
//
//   - optimize: run the pass pipeline over a graph file
//   - stats: print node statistics of a graph
//   - passes: list the registered passes in run order
//   - render: draw a graph as DOT, SVG, PNG or PDF
//   - serve: start the HTTP API
//   - cache: manage the local result cache
//
// Graphs are read from a file argument, or from stdin when the argument is
// omitted or "-". Settings come from a TOML file (see package config); flags
// override it.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which shows
// each pass as it is applied.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphopt/pkg/buildinfo"
	"github.com/matzehuels/graphopt/pkg/cache"
	"github.com/matzehuels/graphopt/pkg/config"
	errs "github.com/matzehuels/graphopt/pkg/errors"
	graphio "github.com/matzehuels/graphopt/pkg/io"
	"github.com/matzehuels/graphopt/pkg/optimizer"
	"github.com/matzehuels/graphopt/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "graphopt"

	// configFile is the name of the config file inside the config directory.
	configFile = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "graphopt optimizes computation graphs",
		Long:         `graphopt rewrites computation graphs with a fixed sequence of optimization passes: transpose reduction, constant folding, duplicate merging and identity removal. A pass that fails is skipped and the graph it was given carries on.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+defaultConfigHint()+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.optimizeCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.passesCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and applies the log level. An explicit
// --config must exist; the default location is optional.
func (c *CLI) setup(cmd *cobra.Command) error {
	var err error
	if c.configPath != "" {
		c.cfg, err = config.Load(c.configPath)
	} else if path, perr := defaultConfigPath(); perr == nil {
		c.cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return err
	}

	level, err := c.cfg.LogLevel()
	if err != nil {
		return err
	}
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	c.Logger.Debug("configuration loaded", "backend", c.cfg.Cache.Backend, "disable", c.cfg.Optimizer.Disable)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// registry returns the default passes minus those disabled in the config.
func (c *CLI) registry() (optimizer.Registry, error) {
	return c.cfg.Registry(optimizer.DefaultRegistry())
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	reg, err := c.registry()
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(c.newCache(ctx, noCache), reg, c.Logger)
	if ttl := c.cfg.Cache.TTL.Duration; ttl > 0 {
		runner.TTL = ttl
	}
	return runner, nil
}

// newCache opens the configured cache backend. Backends that cannot be
// opened degrade to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	switch c.cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache()
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.cfg.Cache.RedisAddr,
			Password: c.cfg.Cache.RedisPassword,
			DB:       c.cfg.Cache.RedisDB,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache()
		}
		return rc
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable, caching disabled", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the default one.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/graphopt/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultConfigPath returns ~/.config/graphopt/config.toml, honoring
// XDG_CONFIG_HOME.
func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, configFile), nil
}

func defaultConfigHint() string {
	return filepath.Join("$XDG_CONFIG_HOME", appName, configFile)
}

// =============================================================================
// Input Helpers
// =============================================================================

// readInput reads a graph document from path, or from stdin when path is
// empty or "-". The format comes from the flag, else the file extension.
func readInput(cmd *cobra.Command, path, format string) ([]byte, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), pipeline.MaxInputSize+1))
		if err != nil {
			return nil, "", errs.Wrap(errs.ErrCodeInvalidInput, err, "read stdin")
		}
		return data, format, nil
	}
	if err := errs.ValidatePath(path); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, "", errs.Wrap(errs.ErrCodeNotFound, err, "input file")
	}
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrCodeInvalidInput, err, "read %s", path)
	}
	if format == "" {
		format = string(graphio.FormatFromPath(path))
	}
	return data, format, nil
}

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// splitList parses a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// disable returns the names from flags that the config has not already
// disabled; the runner's registry omits those.
func (c *CLI) disable(flags []string) []string {
	var out []string
	for _, name := range flags {
		if !slices.Contains(c.cfg.Optimizer.Disable, name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
