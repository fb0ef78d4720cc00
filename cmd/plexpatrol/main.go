package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/plexpatrol/plexpatrol/internal/interfaces/cli/migrate"
	"github.com/plexpatrol/plexpatrol/internal/interfaces/cli/monitor"
	"github.com/plexpatrol/plexpatrol/internal/interfaces/cli/syncusers"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "plexpatrol",
		Short:        "PlexPatrol - stream limit enforcement for Plex",
		Long:         `PlexPatrol watches active Plex sessions, records them, and stops streams that exceed each account's screen limit.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		monitor.NewCommand(),
		migrate.NewCommand(),
		syncusers.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
