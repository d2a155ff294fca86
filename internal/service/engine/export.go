package engine

import (
	"context"
	"errors"
	"fmt"

	"erp-sync/internal/models"
	"erp-sync/internal/repository"
	"erp-sync/internal/translate"
)

// runExport pushes locally modified records of the kind to the ERP.
func (e *Engine) runExport(ctx context.Context, kind models.Kind) *models.SyncRun {
	run := models.NewSyncRun(kind, models.DirectionExport, e.now())

	if err := e.client.Authenticate(ctx); err != nil {
		e.logger.Error().Err(err).Str("kind", string(kind)).Msg("ERP authentication failed, aborting export")
		run.FinishAborted(e.now(), fmt.Sprintf("authentication failed: %v", err))
		return run
	}

	since, err := e.watermarks.Get(ctx, kind, models.DirectionExport)
	if err != nil {
		run.FinishAborted(e.now(), fmt.Sprintf("failed to load watermark: %v", err))
		return run
	}

	candidates, err := e.local.ListModifiedSince(ctx, kind, since)
	if err != nil {
		run.FinishAborted(e.now(), fmt.Sprintf("failed to list candidates: %v", err))
		return run
	}

	e.logger.Debug().Str("kind", string(kind)).Int("candidates", len(candidates)).Msg("Selected export candidates")

	cancelled := false
	for _, rec := range candidates {
		if ctx.Err() != nil {
			cancelled = true
			run.AddError(ptr(rec.LocalID()), nil, "sync cancelled before record was attempted")
			break
		}
		run.Processed++
		if e.exportRecord(ctx, kind, rec, run) {
			run.Succeeded++
		} else {
			run.Failed++
		}
	}

	e.finalize(ctx, run, models.DirectionExport, cancelled)
	return run
}

// exportRecord creates or updates one remote record. Failures are isolated:
// the error lands in the run and the next candidate proceeds.
func (e *Engine) exportRecord(ctx context.Context, kind models.Kind, rec models.LocalRecord, run *models.SyncRun) bool {
	localID := rec.LocalID()

	remoteID, err := e.mappings.LookupByLocal(ctx, kind, localID)
	hasMapping := err == nil
	if err != nil && !errors.Is(err, repository.ErrMappingNotFound) {
		run.AddError(ptr(localID), nil, fmt.Sprintf("mapping lookup failed: %v", err))
		return false
	}

	refs := translate.Refs{CompanyID: e.companyID}
	switch r := rec.(type) {
	case *models.Order:
		refs.PartnerRemoteID, err = e.resolvePartner(ctx, r.CustomerID)
	case *models.Invoice:
		refs.PartnerRemoteID, err = e.resolvePartner(ctx, r.CustomerID)
	}
	if err != nil {
		run.AddError(ptr(localID), nil, fmt.Sprintf("failed to resolve customer dependency: %v", err))
		return false
	}

	fields, warnings, err := translate.ToRemote(rec, refs)
	if err != nil {
		run.AddError(ptr(localID), nil, fmt.Sprintf("translation failed: %v", err))
		return false
	}
	for _, w := range warnings {
		run.AddWarning(ptr(localID), nil, w.String())
	}

	model := translate.RemoteModel(kind)
	if hasMapping {
		// move_type is a create-only field in the ERP's invoice model.
		delete(fields, "move_type")
		if err := e.client.Update(ctx, model, remoteID, fields); err != nil {
			run.AddError(ptr(localID), ptr(remoteID), fmt.Sprintf("remote update failed: %v", err))
			return false
		}
	} else {
		remoteID, err = e.client.Create(ctx, model, fields)
		if err != nil {
			run.AddError(ptr(localID), nil, fmt.Sprintf("remote create failed: %v", err))
			return false
		}
	}

	if err := e.mappings.Upsert(ctx, kind, localID, remoteID, e.now()); err != nil {
		run.AddError(ptr(localID), ptr(remoteID), fmt.Sprintf("mapping upsert failed: %v", err))
		return false
	}

	e.logger.Debug().Str("kind", string(kind)).Int64("localId", localID).Int64("remoteId", remoteID).Msg("Exported record")
	return true
}

// resolvePartner returns the remote partner ID for a local customer, exporting
// the customer inline when it has never been synced.
func (e *Engine) resolvePartner(ctx context.Context, customerID int64) (int64, error) {
	remoteID, err := e.mappings.LookupByLocal(ctx, models.KindCustomer, customerID)
	if err == nil {
		return remoteID, nil
	}
	if !errors.Is(err, repository.ErrMappingNotFound) {
		return 0, err
	}

	rec, err := e.local.Get(ctx, models.KindCustomer, customerID)
	if err != nil {
		return 0, fmt.Errorf("customer %d not found locally: %w", customerID, err)
	}

	fields, _, err := translate.ToRemote(rec, translate.Refs{CompanyID: e.companyID})
	if err != nil {
		return 0, err
	}
	remoteID, err = e.client.Create(ctx, translate.RemoteModel(models.KindCustomer), fields)
	if err != nil {
		return 0, fmt.Errorf("inline customer export failed: %w", err)
	}
	if err := e.mappings.Upsert(ctx, models.KindCustomer, customerID, remoteID, e.now()); err != nil {
		return 0, err
	}

	e.logger.Debug().Int64("localId", customerID).Int64("remoteId", remoteID).Msg("Exported customer dependency inline")
	return remoteID, nil
}
