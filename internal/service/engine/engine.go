package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"erp-sync/internal/erp"
	"erp-sync/internal/models"
	"erp-sync/internal/repository"
	"erp-sync/pkg/log"
)

// Engine runs sync passes between the back office and the ERP. Runs for the
// same kind are serialized through a per-kind mutex so an overlapping trigger
// waits instead of racing on mappings and watermarks.
type Engine struct {
	logger     zerolog.Logger
	client     erp.Client
	mappings   repository.MappingStore
	runs       repository.SyncRunStore
	watermarks repository.WatermarkStore
	local      repository.LocalStore
	companyID  int64
	kindLocks  map[models.Kind]*sync.Mutex
	now        func() time.Time
}

type Options struct {
	Client     erp.Client
	Mappings   repository.MappingStore
	Runs       repository.SyncRunStore
	Watermarks repository.WatermarkStore
	Local      repository.LocalStore
	CompanyID  int64
}

func New(opts Options) *Engine {
	locks := make(map[models.Kind]*sync.Mutex, len(models.Kinds()))
	for _, kind := range models.Kinds() {
		locks[kind] = &sync.Mutex{}
	}
	return &Engine{
		logger:     log.Logger.With().Str("component", "sync_engine").Logger(),
		client:     opts.Client,
		mappings:   opts.Mappings,
		runs:       opts.Runs,
		watermarks: opts.Watermarks,
		local:      opts.Local,
		companyID:  opts.CompanyID,
		kindLocks:  locks,
		now:        time.Now,
	}
}

// ConnectionStatus is the outcome of a credential check against the ERP.
type ConnectionStatus struct {
	OK      bool
	Message string
}

// TestConnection authenticates against the ERP without syncing or recording
// anything.
func (e *Engine) TestConnection(ctx context.Context) ConnectionStatus {
	if err := e.client.Authenticate(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("ERP connection test failed")
		return ConnectionStatus{OK: false, Message: err.Error()}
	}
	return ConnectionStatus{OK: true, Message: "connection established"}
}

// Sync runs one pass for the kind. A bidirectional direction produces an
// export run followed by an import run, each journaled separately.
func (e *Engine) Sync(ctx context.Context, kind models.Kind, direction models.Direction) ([]*models.SyncRun, error) {
	if !models.ValidKind(string(kind)) {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	if !models.ValidDirection(string(direction)) {
		return nil, fmt.Errorf("unknown sync direction %q", direction)
	}

	lock := e.kindLocks[kind]
	lock.Lock()
	defer lock.Unlock()

	e.logger.Info().Str("kind", string(kind)).Str("direction", string(direction)).Msg("Starting sync pass")

	var runs []*models.SyncRun
	if direction == models.DirectionExport || direction == models.DirectionBidirectional {
		runs = append(runs, e.runExport(ctx, kind))
	}
	if direction == models.DirectionImport || direction == models.DirectionBidirectional {
		runs = append(runs, e.runImport(ctx, kind))
	}

	for _, run := range runs {
		// detached so a cancelled pass still leaves a journal entry
		if err := e.runs.Record(context.WithoutCancel(ctx), run); err != nil {
			e.logger.Error().Err(err).Str("runId", run.ID.String()).Msg("Failed to journal sync run")
		}
		e.logger.Info().
			Str("kind", string(run.Kind)).
			Str("direction", string(run.Direction)).
			Str("status", string(run.Status)).
			Int("processed", run.Processed).
			Int("succeeded", run.Succeeded).
			Int("failed", run.Failed).
			Msg("Sync run finished")
	}
	return runs, nil
}

// SyncAll runs Sync for every kind in the list, in dependency order. A failed
// kind does not stop the remaining kinds.
func (e *Engine) SyncAll(ctx context.Context, kinds []models.Kind, direction models.Direction) ([]*models.SyncRun, error) {
	var all []*models.SyncRun
	for _, kind := range kinds {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}
		runs, err := e.Sync(ctx, kind, direction)
		if err != nil {
			e.logger.Error().Err(err).Str("kind", string(kind)).Msg("Sync pass failed to start")
			continue
		}
		all = append(all, runs...)
	}
	return all, nil
}

// finalize stamps the run, applying the cancellation downgrade, and advances
// the watermark to the run's start instant unless every attempted record
// failed or the pass stopped early.
func (e *Engine) finalize(ctx context.Context, run *models.SyncRun, direction models.Direction, cancelled bool) {
	run.Finish(e.now())
	if cancelled {
		if run.Succeeded == 0 {
			run.Status = models.RunFailure
		} else {
			run.Status = models.RunPartialFailure
		}
		return
	}
	if run.TotalFailure() {
		return
	}
	if err := e.watermarks.Set(context.WithoutCancel(ctx), run.Kind, direction, run.StartedAt); err != nil {
		e.logger.Error().Err(err).Str("kind", string(run.Kind)).Msg("Failed to advance watermark")
	}
}

func ptr(v int64) *int64 {
	return &v
}
