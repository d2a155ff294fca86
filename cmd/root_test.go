package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"erp-sync/internal/config"
)

const sampleConfigYAML = `id: "cli-test"
erp:
  url: "http://odoo:8069"
  database: "rental"
  username: "sync@example.com"
  api_key: "key"
postgres:
  address: "localhost"
  port: 5432
  username: "u"
  password: "p"
  db_name: "erp_sync"
`

func writeSampleConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfigYAML), 0o600))
	return path
}

func setConfigFlag(t *testing.T, value string) {
	t.Helper()
	cfgFile = value
	t.Cleanup(func() { cfgFile = "" })
}

func TestLoadConfigFileFromFlag(t *testing.T) {
	viper.Reset()
	setConfigFlag(t, writeSampleConfig(t))

	require.NoError(t, loadConfigFile(RootCmd, nil))

	cfg, err := config.NewConfig()
	require.NoError(t, err)
	require.Equal(t, "cli-test", cfg.ID)
	require.Equal(t, "http://odoo:8069", cfg.ERP.URL)
	require.Equal(t, "erp_sync", cfg.Postgres.DBName)
}

func TestLoadConfigFileFromSearchPath(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleConfigYAML), 0o600))
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)
	setConfigFlag(t, "")

	require.NoError(t, loadConfigFile(RootCmd, nil))

	cfg, err := config.NewConfig()
	require.NoError(t, err)
	require.Equal(t, "cli-test", cfg.ID)
}

func TestLoadConfigFileMissingDefaultIsTolerated(t *testing.T) {
	viper.Reset()
	viper.SetConfigType("yaml")
	viper.AddConfigPath(t.TempDir())
	setConfigFlag(t, "")

	require.NoError(t, loadConfigFile(RootCmd, nil))
}

func TestLoadConfigFileBadFlagPathFails(t *testing.T) {
	viper.Reset()
	setConfigFlag(t, filepath.Join(t.TempDir(), "nope.yaml"))

	err := loadConfigFile(RootCmd, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigFileEnvOverridesFile(t *testing.T) {
	viper.Reset()
	setConfigFlag(t, writeSampleConfig(t))
	t.Setenv("ERP_SYNC_ERP_URL", "http://odoo.internal:8069")

	require.NoError(t, loadConfigFile(RootCmd, nil))

	cfg, err := config.NewConfig()
	require.NoError(t, err)
	require.Equal(t, "http://odoo.internal:8069", cfg.ERP.URL)
}
