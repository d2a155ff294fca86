package sync

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"erp-sync/internal/config"
	"erp-sync/internal/core"
	"erp-sync/internal/models"
	"erp-sync/pkg/log"
)

var directionFlag string

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize records between the back office and the ERP",
	Long:  `Synchronize records between the back office and the ERP with various execution modes.`,
}

var onceCmd = &cobra.Command{
	Use:     "once <kind>",
	Short:   "Run one sync pass for a single record kind and exit",
	Long:    `Perform a one-time synchronization of one record kind (product, customer, order or invoice) and exit.`,
	Example: `erp-sync sync once product --direction export --config /path/to/config.yaml`,
	Args:    cobra.ExactArgs(1),
	Run:     runOnce,
}

var allCmd = &cobra.Command{
	Use:     "all",
	Short:   "Run one sync pass for every enabled record kind and exit",
	Long:    `Perform a one-time synchronization of every kind enabled in the configuration, in dependency order, and exit.`,
	Example: `erp-sync sync all --config /path/to/config.yaml`,
	Run:     runAll,
}

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	Short:   "Run sync passes continuously on the configured schedule",
	Long:    `Run sync passes continuously, one recurring job per enabled record kind, until interrupted.`,
	Example: `erp-sync sync daemon --config /path/to/config.yaml`,
	Run:     runDaemon,
}

func init() {
	SyncCmd.PersistentFlags().StringVarP(&directionFlag, "direction", "d", "",
		"override the configured direction (export, import or bidirectional)")
	SyncCmd.AddCommand(onceCmd)
	SyncCmd.AddCommand(allCmd)
	SyncCmd.AddCommand(daemonCmd)
}

func loadConfig() (*config.Config, bool) {
	appConfig, err := config.NewConfig()
	if err != nil {
		log.Logger.Error().Err(err).Msg("Error creating config")
		return nil, false
	}
	log.Init(appConfig.ID, appConfig.LogLevel)
	return appConfig, true
}

// direction resolves the effective direction for a kind: the flag wins over
// the configured rule.
func direction(rule config.KindRule) (models.Direction, error) {
	value := directionFlag
	if value == "" {
		value = rule.Direction
	}
	if !models.ValidDirection(value) {
		return "", fmt.Errorf("invalid direction %q", value)
	}
	return models.Direction(value), nil
}

func runOnce(cmd *cobra.Command, args []string) {
	logger := log.Logger.With().Str("component", "sync-once").Logger()

	if !models.ValidKind(args[0]) {
		logger.Error().Str("kind", args[0]).Msg("Unknown record kind")
		os.Exit(1)
	}
	kind := models.Kind(args[0])

	appConfig, ok := loadConfig()
	if !ok {
		os.Exit(1)
	}

	dir, err := direction(appConfig.Sync.ForKind(kind))
	if err != nil {
		logger.Error().Err(err).Msg("Invalid direction")
		os.Exit(1)
	}

	logger.Info().Str("kind", string(kind)).Str("direction", string(dir)).Msg("Starting one-time sync")

	wiring := core.NewWiring(appConfig)
	runs, err := wiring.InitEngine().Sync(cmd.Context(), kind, dir)
	if err != nil {
		logger.Error().Err(err).Msg("Error during sync")
		os.Exit(1)
	}
	reportRuns(runs)
}

func runAll(cmd *cobra.Command, _ []string) {
	logger := log.Logger.With().Str("component", "sync-all").Logger()

	appConfig, ok := loadConfig()
	if !ok {
		os.Exit(1)
	}

	kinds := appConfig.Sync.EnabledKinds()
	if len(kinds) == 0 {
		logger.Error().Msg("No record kinds enabled in configuration")
		os.Exit(1)
	}

	wiring := core.NewWiring(appConfig)
	eng := wiring.InitEngine()

	var all []*models.SyncRun
	for _, kind := range kinds {
		dir, err := direction(appConfig.Sync.ForKind(kind))
		if err != nil {
			logger.Error().Err(err).Str("kind", string(kind)).Msg("Invalid direction")
			os.Exit(1)
		}
		runs, err := eng.Sync(cmd.Context(), kind, dir)
		if err != nil {
			logger.Error().Err(err).Str("kind", string(kind)).Msg("Error during sync")
			continue
		}
		all = append(all, runs...)
	}
	reportRuns(all)
}

func runDaemon(cmd *cobra.Command, _ []string) {
	logger := log.Logger.With().Str("component", "sync-daemon").Logger()

	appConfig, ok := loadConfig()
	if !ok {
		os.Exit(1)
	}

	wiring := core.NewWiring(appConfig)
	sched := wiring.InitScheduler()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to start scheduler")
		os.Exit(1)
	}
	logger.Info().Msg("Sync daemon running, waiting for scheduled passes")

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received, waiting for in-flight runs")
	sched.Stop()
}

func reportRuns(runs []*models.SyncRun) {
	logger := log.Logger.With().Str("component", "sync-report").Logger()
	for _, run := range runs {
		event := logger.Info()
		if run.Status != models.RunSuccess {
			event = logger.Warn()
		}
		event.
			Str("kind", string(run.Kind)).
			Str("direction", string(run.Direction)).
			Str("status", string(run.Status)).
			Int("processed", run.Processed).
			Int("succeeded", run.Succeeded).
			Int("failed", run.Failed).
			Msg("Sync run result")
	}
}
