package syncusers

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/plexpatrol/plexpatrol/internal/application/usersync"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/config"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/database"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/plex"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/repository"
	sharedConfig "github.com/plexpatrol/plexpatrol/internal/shared/config"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

var (
	configDir string
	timeout   time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync-users",
		Short: "Import media server accounts into the user table",
		Long:  `Fetch the account list from the media server once and upsert every account by id and name. Existing policy fields are kept.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&configDir, "config", "c", "", "Directory containing config.yaml (default: ./configs)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall time limit for the import")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, _, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, false); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	provider := &sharedConfig.Static{
		ServerURL: cfg.Plex.ServerURL,
		Token:     cfg.Plex.Token,
		Interval:  cfg.Monitor.CheckInterval,
		Policy:    cfg.Rules,
	}
	client := plex.NewClient(provider, plex.OptionsFromConfig(cfg.Plex), logger.WithComponent("plex"))
	store := repository.NewStore(database.Get(), logger.WithComponent("store"))

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	count, err := usersync.NewJob(client, store, log).Execute(ctx)
	if err != nil {
		return fmt.Errorf("user sync failed after %d account(s): %w", count, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d account(s)\n", count)
	return nil
}
