package engine

import (
	"context"
	"errors"
	"fmt"

	"erp-sync/internal/erp"
	"erp-sync/internal/models"
	"erp-sync/internal/repository"
	"erp-sync/internal/translate"
)

// runImport pulls remotely modified records of the kind into the back office.
func (e *Engine) runImport(ctx context.Context, kind models.Kind) *models.SyncRun {
	run := models.NewSyncRun(kind, models.DirectionImport, e.now())

	if err := e.client.Authenticate(ctx); err != nil {
		e.logger.Error().Err(err).Str("kind", string(kind)).Msg("ERP authentication failed, aborting import")
		run.FinishAborted(e.now(), fmt.Sprintf("authentication failed: %v", err))
		return run
	}

	since, err := e.watermarks.Get(ctx, kind, models.DirectionImport)
	if err != nil {
		run.FinishAborted(e.now(), fmt.Sprintf("failed to load watermark: %v", err))
		return run
	}

	records, err := e.client.SearchRead(ctx, translate.RemoteModel(kind), translate.ImportDomain(kind, since), translate.ImportFields(kind))
	if err != nil {
		run.FinishAborted(e.now(), fmt.Sprintf("remote query failed: %v", err))
		return run
	}

	e.logger.Debug().Str("kind", string(kind)).Int("candidates", len(records)).Msg("Selected import candidates")

	cancelled := false
	for _, r := range records {
		if ctx.Err() != nil {
			cancelled = true
			run.AddError(nil, ptr(r.Int("id")), "sync cancelled before record was attempted")
			break
		}
		run.Processed++
		if e.importRecord(ctx, kind, r, run) {
			run.Succeeded++
		} else {
			run.Failed++
		}
	}

	e.finalize(ctx, run, models.DirectionImport, cancelled)
	return run
}

// importRecord reconciles one remote record against the back office: by
// mapping first, then by the remote's back-reference fields, then (for
// customers) by email, creating a local record when nothing matches.
func (e *Engine) importRecord(ctx context.Context, kind models.Kind, r erp.Record, run *models.SyncRun) bool {
	remoteID := r.Int("id")
	if remoteID == 0 {
		run.AddError(nil, nil, "remote record has no id field")
		return false
	}

	localID, err := e.mappings.LookupByRemote(ctx, kind, remoteID)
	hasMapping := err == nil
	if err != nil && !errors.Is(err, repository.ErrMappingNotFound) {
		run.AddError(nil, ptr(remoteID), fmt.Sprintf("mapping lookup failed: %v", err))
		return false
	}

	if !hasMapping {
		localID, hasMapping, err = e.adoptExisting(ctx, kind, r, remoteID)
		if err != nil {
			run.AddError(nil, ptr(remoteID), fmt.Sprintf("reconciliation failed: %v", err))
			return false
		}
	}

	refs := translate.LocalRefs{}
	if kind == models.KindOrder || kind == models.KindInvoice {
		refs.CustomerLocalID, err = e.resolveLocalCustomer(ctx, r.Int("partner_id"))
		if err != nil {
			run.AddError(nil, ptr(remoteID), fmt.Sprintf("failed to resolve customer dependency: %v", err))
			return false
		}
	}

	rec, warnings, err := translate.ToLocal(kind, r, refs, e.now())
	if err != nil {
		run.AddError(nil, ptr(remoteID), fmt.Sprintf("translation failed: %v", err))
		return false
	}
	for _, w := range warnings {
		run.AddWarning(nil, ptr(remoteID), w.String())
	}

	if hasMapping {
		if err := e.local.Update(ctx, localID, rec); err != nil {
			run.AddError(ptr(localID), ptr(remoteID), fmt.Sprintf("local update failed: %v", err))
			return false
		}
	} else {
		localID, err = e.local.Create(ctx, rec)
		if err != nil {
			run.AddError(nil, ptr(remoteID), fmt.Sprintf("local create failed: %v", err))
			return false
		}
	}

	if err := e.mappings.Upsert(ctx, kind, localID, remoteID, e.now()); err != nil {
		run.AddError(ptr(localID), ptr(remoteID), fmt.Sprintf("mapping upsert failed: %v", err))
		return false
	}

	e.logger.Debug().Str("kind", string(kind)).Int64("localId", localID).Int64("remoteId", remoteID).Msg("Imported record")
	return true
}

// adoptExisting looks for a local record the remote one already corresponds
// to. A remote back-reference to a live local record wins; customers fall
// back to an email match.
func (e *Engine) adoptExisting(ctx context.Context, kind models.Kind, r erp.Record, remoteID int64) (int64, bool, error) {
	if backID := r.Int(translate.BackRefIDField); backID != 0 {
		if _, err := e.local.Get(ctx, kind, backID); err == nil {
			return backID, true, nil
		} else if !errors.Is(err, repository.ErrRecordNotFound) {
			return 0, false, err
		}
	}

	if kind == models.KindCustomer {
		if email := r.Str("email"); email != "" {
			c, err := e.local.FindCustomerByEmail(ctx, email)
			if err == nil {
				return c.ID, true, nil
			}
			if !errors.Is(err, repository.ErrRecordNotFound) {
				return 0, false, err
			}
		}
	}
	return 0, false, nil
}

// resolveLocalCustomer returns the local customer ID for a remote partner,
// importing the partner inline when it has never been seen.
func (e *Engine) resolveLocalCustomer(ctx context.Context, partnerRemoteID int64) (int64, error) {
	if partnerRemoteID == 0 {
		return 0, errors.New("remote record has no partner")
	}

	localID, err := e.mappings.LookupByRemote(ctx, models.KindCustomer, partnerRemoteID)
	if err == nil {
		return localID, nil
	}
	if !errors.Is(err, repository.ErrMappingNotFound) {
		return 0, err
	}

	r, err := e.client.Read(ctx, translate.RemoteModel(models.KindCustomer), partnerRemoteID, translate.ImportFields(models.KindCustomer))
	if err != nil {
		return 0, fmt.Errorf("inline customer import failed: %w", err)
	}

	localID, adopted, err := e.adoptExisting(ctx, models.KindCustomer, r, partnerRemoteID)
	if err != nil {
		return 0, err
	}
	if !adopted {
		rec, _, err := translate.ToLocal(models.KindCustomer, r, translate.LocalRefs{}, e.now())
		if err != nil {
			return 0, err
		}
		localID, err = e.local.Create(ctx, rec)
		if err != nil {
			return 0, err
		}
	}

	if err := e.mappings.Upsert(ctx, models.KindCustomer, localID, partnerRemoteID, e.now()); err != nil {
		return 0, err
	}

	e.logger.Debug().Int64("localId", localID).Int64("remoteId", partnerRemoteID).Msg("Imported customer dependency inline")
	return localID, nil
}
