package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/internal/config"
	"github.com/matzehuels/layerstack/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the HTTP response and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached responses and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.cfg().Cache.Backend == config.BackendNone {
				printInfo("Cache is disabled")
				return nil
			}

			store, err := c.newCache(ctx, false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printWarning("Cache backend cannot be cleared")
				return nil
			}
			count, err := clearer.Clear(ctx)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Backend: %s", c.cfg().Cache.Backend)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg()
			if cfg.Cache.Backend == config.BackendRedis {
				fmt.Println(cfg.Cache.RedisURL)
				return nil
			}
			dir, err := cfg.CacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
