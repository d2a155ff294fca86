package logs

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"erp-sync/internal/config"
	"erp-sync/internal/core"
	"erp-sync/internal/models"
	"erp-sync/internal/repository"
	"erp-sync/pkg/log"
)

var (
	kindFlag      string
	directionFlag string
	statusFlag    string
	sinceFlag     time.Duration
	limitFlag     int
	errorsFlag    bool
)

var LogsCmd = &cobra.Command{
	Use:     "logs",
	Short:   "Show recent sync runs from the journal",
	Long:    `List recent sync runs recorded in the journal, newest first, with optional kind, direction, status and time filters.`,
	Example: `erp-sync logs --kind invoice --status partial_failure --since 24h --config /path/to/config.yaml`,
	Run:     runLogs,
}

func init() {
	LogsCmd.Flags().StringVar(&kindFlag, "kind", "", "filter by record kind (product, customer, order, invoice)")
	LogsCmd.Flags().StringVar(&directionFlag, "direction", "", "filter by direction (export, import)")
	LogsCmd.Flags().StringVar(&statusFlag, "status", "", "filter by run status (success, partial_failure, failure)")
	LogsCmd.Flags().DurationVar(&sinceFlag, "since", 0, "only runs started within this duration (e.g. 24h)")
	LogsCmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum number of runs to show")
	LogsCmd.Flags().BoolVar(&errorsFlag, "errors", false, "show per-record errors for each run")
}

func buildFilter() (repository.RunFilter, error) {
	filter := repository.RunFilter{Limit: limitFlag}
	if kindFlag != "" {
		if !models.ValidKind(kindFlag) {
			return filter, fmt.Errorf("unknown record kind %q", kindFlag)
		}
		kind := models.Kind(kindFlag)
		filter.Kind = &kind
	}
	if directionFlag != "" {
		if !models.ValidDirection(directionFlag) {
			return filter, fmt.Errorf("unknown direction %q", directionFlag)
		}
		dir := models.Direction(directionFlag)
		filter.Direction = &dir
	}
	if statusFlag != "" {
		status := models.RunStatus(statusFlag)
		filter.Status = &status
	}
	if sinceFlag > 0 {
		from := time.Now().Add(-sinceFlag)
		filter.From = &from
	}
	return filter, nil
}

func runLogs(cmd *cobra.Command, _ []string) {
	logger := log.Logger.With().Str("component", "logs").Logger()

	appConfig, err := config.NewConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Error creating config")
		os.Exit(1)
	}
	log.Init(appConfig.ID, appConfig.LogLevel)

	filter, err := buildFilter()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid filter")
		os.Exit(1)
	}

	wiring := core.NewWiring(appConfig)
	runs, err := wiring.InitSyncRunStore().List(cmd.Context(), filter)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list sync runs")
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("no sync runs recorded")
		return
	}

	fmt.Printf("%-36s  %-8s  %-6s  %-15s  %9s  %9s  %6s  %s\n",
		"RUN", "KIND", "DIR", "STATUS", "PROCESSED", "SUCCEEDED", "FAILED", "STARTED")
	for _, run := range runs {
		fmt.Printf("%-36s  %-8s  %-6s  %-15s  %9d  %9d  %6d  %s\n",
			run.ID, run.Kind, run.Direction, run.Status,
			run.Processed, run.Succeeded, run.Failed,
			run.StartedAt.Local().Format(time.RFC3339))
		if errorsFlag {
			for _, recErr := range run.Errors {
				prefix := "error"
				if recErr.Warning {
					prefix = "warning"
				}
				fmt.Printf("    %s: %s%s\n", prefix, recErr.Message, formatIDs(recErr))
			}
		}
	}
}

func formatIDs(recErr models.RecordError) string {
	switch {
	case recErr.LocalID != nil && recErr.RemoteID != nil:
		return fmt.Sprintf(" (local %d, remote %d)", *recErr.LocalID, *recErr.RemoteID)
	case recErr.LocalID != nil:
		return fmt.Sprintf(" (local %d)", *recErr.LocalID)
	case recErr.RemoteID != nil:
		return fmt.Sprintf(" (remote %d)", *recErr.RemoteID)
	}
	return ""
}
