package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aallbrig/buildshim/cache"
	"github.com/aallbrig/buildshim/config"
	"github.com/aallbrig/buildshim/impl"
)

func newCacheCmd() *cobra.Command {
	var configPath string
	c := &cobra.Command{
		Use:   "cache",
		Short: "Manage the build-script-impl verdict cache",
	}
	c.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $HOME/.buildshim.yaml)")
	c.AddCommand(newCacheClearCmd(&configPath), newCacheListCmd(&configPath))
	return c
}

// openCache opens the cache directory check and run would use for the same
// config file.
func openCache(configPath string) (*cache.Cache, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	c, err := cache.Open(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return c, nil
}

func newCacheClearCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [impl]",
		Short: "Clear cached verdicts",
		Long: `Clear removes remembered build-script-impl verdicts from the local cache.

Without arguments, clears the entire cache.
With an executable name or path, clears only that executable's verdicts.

Examples:
  buildshim cache clear                          # clear everything
  buildshim cache clear ./utils/build-script-impl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(*configPath)
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) == 0 {
				if err := c.Clear(); err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
				return nil
			}

			path := args[0]
			if resolved, err := impl.Resolve(path); err == nil {
				path = resolved
			}
			if err := c.ClearImpl(path); err != nil {
				return fmt.Errorf("clear cache for %q: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared for %q.\n", path)
			return nil
		},
	}
}

func newCacheListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List executables with cached verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(*configPath)
			if err != nil {
				return err
			}
			defer c.Close()

			paths, err := c.ListImpls()
			if err != nil {
				return fmt.Errorf("list cache: %w", err)
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(cache is empty)")
				return nil
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
