package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"erp-sync/cmd/connection"
	"erp-sync/cmd/logs"
	"erp-sync/cmd/sync"
	"erp-sync/cmd/version"
)

var cfgFile string

const (
	CFG_FLAG_NAME = "config"
)

var RootCmd = &cobra.Command{
	Use:   "erp-sync",
	Short: "erp-sync keeps a rental back office and an ERP in sync",
	Long: `erp-sync synchronizes products, customers, orders and invoices between
a rental back-office database and an Odoo-compatible ERP over XML-RPC.
Records modified on either side since the last successful run are pushed
or pulled, with identity mappings and run journals kept in PostgreSQL.`,
	PersistentPreRunE: loadConfigFile,
}

// loadConfigFile runs after flag parsing, so the --config value is visible
// here. Without the flag the default search paths are tried and a missing
// file is not an error: env vars and defaults can still carry the config.
func loadConfigFile(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d, b string) {
	version.SetVersionInfo(v, c, d, b)
}

func init() {

	RootCmd.PersistentFlags().StringVarP(&cfgFile, CFG_FLAG_NAME, "c", "", "path to config file")

	viper.BindPFlag(CFG_FLAG_NAME, RootCmd.PersistentFlags().Lookup(CFG_FLAG_NAME))
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("erp_sync")
	viper.AddConfigPath(".")               // For running from project root
	viper.AddConfigPath("/etc/erp-sync/")  // For production
	viper.AddConfigPath("$HOME/.erp-sync") // For user-specific config

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	RootCmd.AddCommand(sync.SyncCmd)
	RootCmd.AddCommand(connection.TestConnectionCmd)
	RootCmd.AddCommand(logs.LogsCmd)
	RootCmd.AddCommand(version.VersionCmd)
}
