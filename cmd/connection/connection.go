package connection

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"erp-sync/internal/config"
	"erp-sync/internal/core"
	"erp-sync/pkg/log"
)

var TestConnectionCmd = &cobra.Command{
	Use:     "test-connection",
	Short:   "Check the ERP credentials without syncing anything",
	Long:    `Authenticate against the configured ERP endpoint and report the outcome. No records are read or written and no database is touched.`,
	Example: `erp-sync test-connection --config /path/to/config.yaml`,
	Run:     runTestConnection,
}

func runTestConnection(cmd *cobra.Command, _ []string) {
	logger := log.Logger.With().Str("component", "test-connection").Logger()

	appConfig, err := config.NewConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Error creating config")
		os.Exit(1)
	}
	log.Init(appConfig.ID, appConfig.LogLevel)

	wiring := core.NewWiring(appConfig)
	if err := wiring.InitERPClient().Authenticate(cmd.Context()); err != nil {
		fmt.Printf("connection failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("connection ok: %s\n", appConfig.ERP.URL)
}
