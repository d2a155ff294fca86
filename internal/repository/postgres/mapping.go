package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"erp-sync/internal/models"
	repo "erp-sync/internal/repository"
	postgres "erp-sync/pkg/db"
	"erp-sync/pkg/log"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

const pgUniqueViolation = "23505"

type PsqlMappingStore struct {
	psql *postgres.PostgresDatastore
}

func NewPsqlMappingStore(psql *postgres.PostgresDatastore) *PsqlMappingStore {
	return &PsqlMappingStore{
		psql: psql,
	}
}

func (store *PsqlMappingStore) LookupByLocal(ctx context.Context, kind models.Kind, localID int64) (int64, error) {
	var remoteID int64
	query := `SELECT remote_id FROM identity_mappings WHERE kind = $1 AND local_id = $2`

	err := store.psql.DB.GetContext(ctx, &remoteID, query, kind, localID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repo.ErrMappingNotFound
		}
		store.decorateLog(log.Logger.Error, kind).Int64("localId", localID).Err(err).Msg("Failed to look up mapping by local ID")
		return 0, fmt.Errorf("failed to look up mapping by local ID: %w", err)
	}
	return remoteID, nil
}

func (store *PsqlMappingStore) LookupByRemote(ctx context.Context, kind models.Kind, remoteID int64) (int64, error) {
	var localID int64
	query := `SELECT local_id FROM identity_mappings WHERE kind = $1 AND remote_id = $2`

	err := store.psql.DB.GetContext(ctx, &localID, query, kind, remoteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repo.ErrMappingNotFound
		}
		store.decorateLog(log.Logger.Error, kind).Int64("remoteId", remoteID).Err(err).Msg("Failed to look up mapping by remote ID")
		return 0, fmt.Errorf("failed to look up mapping by remote ID: %w", err)
	}
	return localID, nil
}

func (store *PsqlMappingStore) Upsert(ctx context.Context, kind models.Kind, localID, remoteID int64, syncedAt time.Time) error {
	query := `
		INSERT INTO identity_mappings (kind, local_id, remote_id, last_synced_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, local_id)
		DO UPDATE SET remote_id = EXCLUDED.remote_id, last_synced_at = EXCLUDED.last_synced_at`

	_, err := store.psql.DB.ExecContext(ctx, query, kind, localID, remoteID, syncedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			store.decorateLog(log.Logger.Warn, kind).Int64("localId", localID).Int64("remoteId", remoteID).Msg("Remote ID already mapped to another local record")
			return repo.ErrMappingConflict
		}
		store.decorateLog(log.Logger.Error, kind).Int64("localId", localID).Int64("remoteId", remoteID).Err(err).Msg("Failed to upsert mapping")
		return fmt.Errorf("failed to upsert mapping: %w", err)
	}
	store.decorateLog(log.Logger.Debug, kind).Int64("localId", localID).Int64("remoteId", remoteID).Msg("Successfully upserted mapping")
	return nil
}

func (store *PsqlMappingStore) ListByKind(ctx context.Context, kind models.Kind) ([]models.IdentityMapping, error) {
	var mappings = make([]models.IdentityMapping, 0)
	query := `SELECT * FROM identity_mappings WHERE kind = $1 ORDER BY local_id`

	err := store.psql.DB.SelectContext(ctx, &mappings, query, kind)
	if err != nil {
		store.decorateLog(log.Logger.Error, kind).Err(err).Msg("Failed to list mappings")
		return mappings, fmt.Errorf("failed to list mappings: %w", err)
	}
	return mappings, nil
}

func (store *PsqlMappingStore) decorateLog(eventFactory func() *zerolog.Event, kind models.Kind) *zerolog.Event {
	return eventFactory().Str("kind", string(kind))
}
