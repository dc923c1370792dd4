package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/buildinfo"
	"github.com/matzehuels/scenegraph/pkg/cache"
	"github.com/matzehuels/scenegraph/pkg/config"
	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/pipeline"
	"github.com/matzehuels/scenegraph/pkg/store"
	"github.com/matzehuels/scenegraph/pkg/story"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "scenegraph"

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

	// Config is loaded before any subcommand runs.
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Scenegraph lays out and checks branching story scenarios",
		Long: `Scenegraph computes editor positions for the scenes of a branching
interactive story, detects choice cycles that would make a story loop forever,
and renders the scene graph as DOT, SVG or PNG.`,
		Version:           buildinfo.Get().Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and attaches the logger to the command context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	return c.prepare(cmd, false)
}

// prepare is setup with the option to fall back to defaults when an explicit
// config file does not exist yet.
func (c *CLI) prepare(cmd *cobra.Command, allowMissing bool) error {
	cfg, err := config.Load(c.configPath)
	switch {
	case err == nil:
		c.Config = cfg
	case allowMissing && errors.Is(err, errors.ErrCodeFileNotFound):
		c.Config = config.Default()
	default:
		return err
	}

	level, err := log.ParseLevel(c.Config.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if c.verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)
	c.Logger.SetFormatter(formatter(c.Config.Log.Format))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.Config.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.Config.Cache.Prefix)
	}
	r := pipeline.NewRunner(cc, keyer, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.Config.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	case config.CacheNone:
		return cache.NewNullCache(), nil
	default:
		fc, err := cache.NewFileCache(c.Config.Cache.Dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "dir", c.Config.Cache.Dir, "error", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// newStore opens the scenario store named by the configuration.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.Store
	switch cfg.Backend {
	case config.StoreFile:
		fs, err := store.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.StoreMongo:
		ms, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return ms, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// =============================================================================
// Input Helpers
// =============================================================================

// readScenario loads a scenario file. With graphql set the file holds a
// scenarioById API response instead of a scenario document.
func readScenario(path string, graphql bool) (*story.Scenario, error) {
	if !graphql {
		sc, err := story.ImportScenario(path)
		if err != nil {
			return nil, fmt.Errorf("load scenario %s: %w", path, err)
		}
		return sc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	sc, err := story.MapScenarioResponse(data)
	if err != nil {
		return nil, fmt.Errorf("map scenario response %s: %w", path, err)
	}
	return sc, nil
}

// outputBase strips the extension from input, so "story.json" becomes "story".
func outputBase(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// outputBaseName is outputBase without the directory.
func outputBaseName(input string) string {
	return filepath.Base(outputBase(input))
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
