package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	monitorApp "github.com/plexpatrol/plexpatrol/internal/application/monitor"
	"github.com/plexpatrol/plexpatrol/internal/application/usersync"
	"github.com/plexpatrol/plexpatrol/internal/domain/shared/events"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/config"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/database"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/metrics"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/migration"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/plex"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/repository"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/scheduler"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/services"
	httpRouter "github.com/plexpatrol/plexpatrol/internal/interfaces/http"
	"github.com/plexpatrol/plexpatrol/internal/shared/biztime"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

var (
	configDir   string
	autoMigrate bool
	debug       bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the enforcement loop",
		Long: `Poll the media server, record sessions, enforce per-user stream limits
and serve the operator API until interrupted.`,
		RunE: run,
	}

	cmd.Flags().StringVarP(&configDir, "config", "c", "", "Directory containing config.yaml (default: ./configs)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "Apply pending database migrations on startup")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log source locations at every level")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, v, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, debug); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Sync.Timezone); err != nil {
		return fmt.Errorf("failed to initialize reporting timezone: %w", err)
	}

	provider := config.NewProvider(cfg, v, logger.WithComponent("config"))
	provider.Watch()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		mgr := migration.NewManager(cfg.Database.MigrationStrategy, log)
		if err := mgr.Migrate(database.Get(), migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := repository.NewStore(database.Get(), logger.WithComponent("store"))
	client := plex.NewClient(provider, plex.OptionsFromConfig(cfg.Plex), logger.WithComponent("plex"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	notifier, closeNotifier := buildNotifier(ctx, cfg, log)
	defer closeNotifier()

	dispatcher := events.NewInMemoryEventDispatcher(256, logger.WithComponent("events"))
	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer func() {
		if err := dispatcher.Stop(); err != nil {
			log.Errorw("failed to stop event dispatcher", "error", err)
		}
	}()

	hub := services.NewEventHub(0, logger.WithComponent("eventhub"))
	defer hub.Shutdown()
	if err := dispatcher.Subscribe(events.WildcardEventType, hub); err != nil {
		return fmt.Errorf("failed to subscribe event hub: %w", err)
	}

	engine := monitorApp.New(monitorApp.Deps{
		Source:   client,
		Store:    store,
		Notifier: notifier,
		Events:   dispatcher,
		Config:   provider,
		Metrics:  recorder,
		Logger:   log,
	}, optionsFromConfig(cfg))

	var sched *scheduler.SchedulerManager
	if cfg.Sync.Enabled {
		sched, err = scheduler.NewSchedulerManager(logger.WithComponent("scheduler"))
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		job := usersync.NewJob(client, store, logger.WithComponent("usersync"))
		if err := sched.RegisterUserSyncJob(job, cfg.Sync.Interval); err != nil {
			return fmt.Errorf("failed to register user sync job: %w", err)
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
	}

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	var srv *http.Server
	serverErr := make(chan error, 1)
	if cfg.Server.Enabled {
		gin.SetMode(cfg.Server.Mode)
		gin.DefaultWriter = io.Discard
		gin.DebugPrintRouteFunc = func(string, string, string, int) {}

		router := httpRouter.NewRouter(httpRouter.RouterDeps{
			Monitor: engine,
			Users:   store,
			Reports: store,
			Events:  hub,
			Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
			Logger:  log,
		})
		router.SetupRoutes()

		srv = &http.Server{
			Addr:         cfg.Server.GetAddr(),
			Handler:      router.GetEngine(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // SSE streams stay open
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Infow("operator api listening", "address", srv.Addr, "mode", cfg.Server.Mode)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	log.Infow("plexpatrol started",
		"server_url", cfg.Plex.ServerURL,
		"check_interval", cfg.Monitor.CheckInterval,
		"default_max_streams", cfg.Rules.DefaultMaxStreams,
	)

	var runErr error
	select {
	case <-ctx.Done():
		log.Infow("shutting down...")
	case <-engine.Done():
		log.Warnw("monitor loop exited")
	case err := <-serverErr:
		log.Errorw("operator api failed", "error", err)
		runErr = err
	}

	// Close the API before the loop so no stop request is queued late.
	if srv != nil {
		hub.Shutdown()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("server forced to shutdown", "error", err)
		}
		shutdownCancel()
	}

	if !engine.Stop() {
		log.Warnw("monitor did not stop within the grace period")
	}

	log.Infow("plexpatrol exited")
	return runErr
}

func optionsFromConfig(cfg *config.Config) monitorApp.Options {
	return monitorApp.Options{
		CleanupEveryTicks: cfg.Monitor.CleanupEveryTicks,
		CleanupOlderThan:  cfg.Monitor.CleanupOlderThan,
		UnhealthyAfter:    cfg.Monitor.UnhealthyAfter,
		ReconnectEvery:    cfg.Monitor.ReconnectEvery,
		MaxBackoff:        cfg.Monitor.MaxBackoff,
		StopGrace:         cfg.Monitor.StopGrace,
	}
}
