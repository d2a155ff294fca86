package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"erp-sync/internal/models"
)

// Config is the full application configuration, loaded through viper from a
// YAML file and ERP_SYNC_* environment variable overrides.
type Config struct {
	ID       string    `mapstructure:"id" validate:"required"`
	LogLevel string    `mapstructure:"log_level"`
	ERP      ERP       `mapstructure:"erp"`
	Postgres Postgres  `mapstructure:"postgres"`
	Sync     SyncRules `mapstructure:"sync"`
}

// ERP holds the connection settings for the remote ERP's XML-RPC endpoint.
type ERP struct {
	URL             string `mapstructure:"url" validate:"required,url"`
	Database        string `mapstructure:"database" validate:"required"`
	Username        string `mapstructure:"username" validate:"required"`
	APIKey          string `mapstructure:"api_key" validate:"required"`
	Version         string `mapstructure:"version"`
	CompanyID       int64  `mapstructure:"company_id" validate:"required,gt=0"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"gte=0"`
	BreakerFailures uint32 `mapstructure:"breaker_failures"`
}

type Postgres struct {
	Address        string `mapstructure:"address" validate:"required,hostname|ip"`
	Port           int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	Username       string `mapstructure:"username" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	DBName         string `mapstructure:"db_name" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connection" validate:"required,gt=0"`
}

// SyncRules configures each record kind's schedule and direction.
type SyncRules struct {
	Products  KindRule `mapstructure:"products"`
	Customers KindRule `mapstructure:"customers"`
	Orders    KindRule `mapstructure:"orders"`
	Invoices  KindRule `mapstructure:"invoices"`
}

type KindRule struct {
	Enabled         bool   `mapstructure:"enabled"`
	IntervalMinutes int    `mapstructure:"interval_minutes" validate:"gt=0"`
	Direction       string `mapstructure:"direction" validate:"oneof=export import bidirectional"`
}

func (s SyncRules) ForKind(kind models.Kind) KindRule {
	switch kind {
	case models.KindProduct:
		return s.Products
	case models.KindCustomer:
		return s.Customers
	case models.KindOrder:
		return s.Orders
	case models.KindInvoice:
		return s.Invoices
	}
	return KindRule{}
}

// EnabledKinds returns the kinds with sync enabled, in dependency order.
func (s SyncRules) EnabledKinds() []models.Kind {
	kinds := make([]models.Kind, 0, 4)
	for _, kind := range models.Kinds() {
		if s.ForKind(kind).Enabled {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// NewConfig unmarshals and validates the configuration from the global viper
// instance. Callers are expected to have pointed viper at a config source.
func NewConfig() (*Config, error) {
	setDefaults()
	bindEnvKeys()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("erp.company_id", 1)
	viper.SetDefault("erp.timeout_seconds", 30)
	viper.SetDefault("erp.breaker_failures", 5)
	viper.SetDefault("postgres.ssl_mode", "disable")
	viper.SetDefault("postgres.max_connection", 10)
	for _, kind := range []string{"products", "customers", "orders", "invoices"} {
		viper.SetDefault("sync."+kind+".enabled", true)
		viper.SetDefault("sync."+kind+".interval_minutes", 60)
		viper.SetDefault("sync."+kind+".direction", string(models.DirectionBidirectional))
	}
}

// bindEnvKeys registers every known config key against its ERP_SYNC_*
// environment variable. viper.Unmarshal only walks keys viper already knows
// about, so env-only overrides for keys without defaults (erp.url, id, ...)
// are invisible until they are bound explicitly.
func bindEnvKeys() {
	keys := []string{
		"id", "log_level",
		"erp.url", "erp.database", "erp.username", "erp.api_key",
		"erp.version", "erp.company_id", "erp.timeout_seconds", "erp.breaker_failures",
		"postgres.address", "postgres.port", "postgres.username", "postgres.password",
		"postgres.db_name", "postgres.ssl_mode", "postgres.max_connection",
	}
	for _, kind := range []string{"products", "customers", "orders", "invoices"} {
		keys = append(keys,
			"sync."+kind+".enabled",
			"sync."+kind+".interval_minutes",
			"sync."+kind+".direction")
	}

	for _, key := range keys {
		envKey := "ERP_SYNC_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		viper.BindEnv(key, envKey) //nolint:errcheck // only errors on zero arguments
	}
}

func validate(cfg *Config) error {
	v := validator.New()
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, translateFieldError(fieldErr))
	}
	return errors.New(strings.Join(messages, "; "))
}

func translateFieldError(fieldErr validator.FieldError) string {
	field := fieldErr.Namespace()
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname|ip":
		return fmt.Sprintf("%s must be a valid hostname or IP address", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fieldErr.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fieldErr.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fieldErr.Param())
	}
	return fmt.Sprintf("%s failed validation on %s", field, fieldErr.Tag())
}
