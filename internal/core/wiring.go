package core

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"erp-sync/internal/config"
	"erp-sync/internal/erp"
	repo "erp-sync/internal/repository"
	psqlRepo "erp-sync/internal/repository/postgres"
	"erp-sync/internal/service/engine"
	"erp-sync/internal/service/scheduler"
	"erp-sync/pkg/db"
	"erp-sync/pkg/db/migrations"
	"erp-sync/pkg/log"
)

type Wiring struct {
	config *config.Config
	logger zerolog.Logger
}

func NewWiring(cfg *config.Config) *Wiring {
	var once sync.Once
	var instance *Wiring
	once.Do(func() {
		instance = &Wiring{
			config: cfg,
			logger: log.Logger.With().Str("component", "wiring").Logger(),
		}
	})
	return instance
}

func (w *Wiring) GetConfig() *config.Config {
	return w.config
}

func (w *Wiring) InitPostgresDataStore() *db.PostgresDatastore {
	var instance *db.PostgresDatastore
	var once sync.Once
	once.Do(func() {
		var err error
		instance, err = db.NewPostgresDatastore(&w.config.Postgres, migrations.NewPostgresMigration())
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to create Postgres datastore")
			os.Exit(-1)
		}
	})
	return instance
}

func (w *Wiring) InitERPClient() erp.Client {
	var instance erp.Client
	var once sync.Once
	once.Do(func() {
		var err error
		instance, err = erp.NewXMLRPCClient(erp.Options{
			URL:             w.config.ERP.URL,
			Database:        w.config.ERP.Database,
			Username:        w.config.ERP.Username,
			APIKey:          w.config.ERP.APIKey,
			Version:         w.config.ERP.Version,
			Timeout:         time.Duration(w.config.ERP.TimeoutSeconds) * time.Second,
			BreakerFailures: w.config.ERP.BreakerFailures,
		})
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to create ERP client")
			os.Exit(-1)
		}
	})
	return instance
}

func (w *Wiring) InitMappingStore() repo.MappingStore {
	return psqlRepo.NewPsqlMappingStore(w.InitPostgresDataStore())
}

func (w *Wiring) InitSyncRunStore() repo.SyncRunStore {
	return psqlRepo.NewPsqlSyncRunStore(w.InitPostgresDataStore())
}

func (w *Wiring) InitWatermarkStore() repo.WatermarkStore {
	return psqlRepo.NewPsqlWatermarkStore(w.InitPostgresDataStore())
}

func (w *Wiring) InitLocalStore() repo.LocalStore {
	return psqlRepo.NewPsqlLocalStore(w.InitPostgresDataStore())
}

func (w *Wiring) InitEngine() *engine.Engine {
	psql := w.InitPostgresDataStore()
	return engine.New(engine.Options{
		Client:     w.InitERPClient(),
		Mappings:   psqlRepo.NewPsqlMappingStore(psql),
		Runs:       psqlRepo.NewPsqlSyncRunStore(psql),
		Watermarks: psqlRepo.NewPsqlWatermarkStore(psql),
		Local:      psqlRepo.NewPsqlLocalStore(psql),
		CompanyID:  w.config.ERP.CompanyID,
	})
}

func (w *Wiring) InitScheduler() *scheduler.Scheduler {
	return scheduler.New(w.InitEngine(), w.config.Sync)
}
