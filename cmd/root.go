// Package cmd implements the command-line interface for partscout.
// It provides the root command and subcommands for fetching automotive
// part offers from the marketplace.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partscout/partscout/cmd/cachecmd"
	"github.com/partscout/partscout/cmd/httpd"
	"github.com/partscout/partscout/cmd/scout"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	// rootCmd represents the root command for the partscout CLI.
	rootCmd = &cobra.Command{
		Use:   "partscout",
		Short: "Automotive part price discovery for Iranian marketplaces",
		Long: `partscout searches a Torob-style marketplace for automotive parts,
filters the results for relevance, drills into seller offers, and
aggregates deduplicated price statistics per part.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./partscout.yml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("partscout version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(scout.Command(&cfgFile, &debug))
	rootCmd.AddCommand(httpd.Command(&cfgFile, &debug))
	rootCmd.AddCommand(cachecmd.Command(&cfgFile, &debug))
}
