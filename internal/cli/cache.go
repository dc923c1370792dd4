package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenegraph/pkg/cache"
	"github.com/matzehuels/scenegraph/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached layouts and renders",
		Long: `Remove cached layouts and renders.

With Redis only the layout and artifact keys under the configured prefix are
deleted, so a shared instance keeps its other data. Redis expires entries on
its own, so --expired applies to the file cache only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheClear(cmd.Context(), expired)
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired entries (file cache)")
	return cmd
}

func (c *CLI) runCacheClear(ctx context.Context, expired bool) error {
	cfg := c.Config.Cache
	switch cfg.Backend {
	case config.CacheNone:
		printInfo("Caching is disabled")
		return nil

	case config.CacheRedis:
		if expired {
			printInfo("Redis expires entries itself; nothing to prune")
			return nil
		}
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis cache: %w", err)
		}
		defer rc.Close()
		count := 0
		for _, p := range cache.KeyPrefixes(cfg.Prefix) {
			n, err := rc.Clear(ctx, p)
			count += n
			if err != nil {
				return fmt.Errorf("clear redis cache: %w", err)
			}
		}
		printSuccess("Cleared %d cached entries", count)
		printDetail("Redis: %s", cfg.RedisURL)
		return nil

	default:
		if _, err := os.Stat(cfg.Dir); os.IsNotExist(err) {
			printInfo("Cache is empty")
			return nil
		}
		fc, err := cache.NewFileCache(cfg.Dir)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		sweep, verb := fc.Clear, "Cleared"
		if expired {
			sweep, verb = fc.Prune, "Pruned"
		}
		count, err := sweep()
		if err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		printSuccess("%s %d cached entries", verb, count)
		printDetail("Directory: %s", fc.Dir())
		return nil
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case config.CacheRedis:
				fmt.Fprintln(stdout, c.Config.Cache.RedisURL)
			case config.CacheNone:
				fmt.Fprintln(stdout, "(disabled)")
			default:
				fmt.Fprintln(stdout, c.Config.Cache.Dir)
			}
			return nil
		},
	}
}
