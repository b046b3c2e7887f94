// Package cachecmd implements cache maintenance commands.
package cachecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partscout/partscout/cmd/common"
)

// Command returns the cache command group.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the response cache",
	}
	cmd.AddCommand(statsCommand(cfgFile, debug))
	cmd.AddCommand(sweepCommand(cfgFile, debug))
	cmd.AddCommand(clearCommand(cfgFile, debug))
	return cmd
}

func statsCommand(cfgFile *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cache hit, miss, and footprint counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}
			stats := deps.Cache.Stats()
			fmt.Fprintf(cmd.OutOrStdout(),
				"entries: %d\nbytes: %d\nhits: %d\nmisses: %d\nexpired: %d\n",
				stats.Entries, stats.Bytes, stats.Hits, stats.Misses, stats.Expired,
			)
			return nil
		},
	}
}

func sweepCommand(cfgFile *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}
			removed := deps.Cache.Sweep()
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
			return nil
		},
	}
}

func clearCommand(cfgFile *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries from memory and disk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}
			if err = deps.Cache.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
}
