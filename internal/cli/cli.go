package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/internal/config"
	"github.com/matzehuels/layerstack/pkg/buildinfo"
	"github.com/matzehuels/layerstack/pkg/cache"
	"github.com/matzehuels/layerstack/pkg/observability"
	"github.com/matzehuels/layerstack/pkg/pipeline"
	"github.com/matzehuels/layerstack/pkg/snapshot"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "layerstack"

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

	// Verbose forces debug logging and registers logging hooks. It is set by
	// main before the root command's pre-run.
	Verbose bool

	configPath string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level, load, edit, cache,
// render, and HTTP events are logged through observability hooks.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		hooks := newLogHooks(c.Logger)
		observability.SetEditorHooks(hooks)
		observability.SetRenderHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetHTTPHooks(hooks)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Layerstack edits reflectometry layer stacks",
		Long: `Layerstack loads layered sample models (films on a substrate), normalizes them,
and lets you inspect, reorder, extend, render, and snapshot the layer stack.

Sources are JSON files or http(s) URLs serving the same document, such as
the /api/testdata endpoint of 'layerstack serve'.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/layerstack/config.toml)")

	// Register all subcommands
	root.AddCommand(c.showCommand())
	root.AddCommand(c.normalizeCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.reorderCommand())
	root.AddCommand(c.renumberCommand())
	root.AddCommand(c.renameCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg

	level := cfg.Level()
	if c.Verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// cfg returns the loaded config, or defaults when a command runs without the
// root pre-run (tests).
func (c *CLI) cfg() *config.Config {
	if c.config == nil {
		c.config = config.Default()
		c.config.Cache.Backend = config.BackendFile
		c.config.Store.Backend = config.BackendFile
	}
	return c.config
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if prefix := c.cfg().Cache.Prefix; prefix != "" {
		keyer = cache.NewScopedKeyer(nil, prefix)
	}
	r := pipeline.NewRunner(store, keyer, c.Logger)
	r.TTL = c.cfg().Cache.TTL
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.cfg()
	if noCache || cfg.Cache.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == config.BackendRedis {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		return cache.Observed(rc), nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.Observed(fc), nil
}

func (c *CLI) newStore(ctx context.Context) (snapshot.Store, error) {
	cfg := c.cfg()
	if cfg.Store.Backend == config.BackendMongo {
		return snapshot.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database)
	}
	return snapshot.NewFileStore(cfg.Store.Dir)
}
