package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/internal/server"
	"github.com/matzehuels/scenegraph/pkg/editor"
	"github.com/matzehuels/scenegraph/pkg/observability"
	"github.com/matzehuels/scenegraph/pkg/store"
)

type serveFlags struct {
	addr      string
	noCache   bool
	noMetrics bool
	load      []string
}

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The server exposes layout, check and render endpoints for scenario documents,
and scenario endpoints backed by the configured store. Scene edits that would
create a cycle are rejected. Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.noMetrics, "no-metrics", false, "do not collect or serve metrics")
	cmd.Flags().StringSliceVar(&flags.load, "load", nil, "scenario files to add to the store at startup")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := c.loadScenarios(ctx, st, flags.load); err != nil {
		return err
	}

	var metrics http.Handler
	if !flags.noMetrics {
		prom := observability.NewPrometheusHooks()
		hooks := observability.Register(prom)
		defer observability.Reset()
		loggerFromContext(ctx).Debug("metrics enabled", "hooks", hooks)
		metrics = prom.Handler()
	}

	cfg := c.Config.Server
	if flags.addr != "" {
		cfg.Addr = flags.addr
	}
	srv := server.New(server.Config{
		Addr:            cfg.Addr,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		Layout:          c.Config.LayoutOptions(),
	}, server.Deps{
		Runner:  runner,
		Store:   st,
		Logger:  logger,
		Metrics: metrics,
	})

	logger.Info("starting server",
		"addr", cfg.Addr,
		"store", c.Config.Store.Backend,
		"cache", c.Config.Cache.Backend)
	return srv.ListenAndServe(ctx)
}

// loadScenarios stores each file through the editor so cyclic scenarios are
// refused before the server starts.
func (c *CLI) loadScenarios(ctx context.Context, st store.Store, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	ed := editor.New(st, loggerFromContext(ctx))
	for _, path := range paths {
		sc, err := readScenario(path, false)
		if err != nil {
			return err
		}
		if sc.ID == "" {
			sc.ID = outputBaseName(path)
		}
		if _, err := ed.CreateScenario(ctx, sc); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		printInfo("Loaded %s", path)
	}
	return nil
}
