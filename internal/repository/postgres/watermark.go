package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"erp-sync/internal/models"
	postgres "erp-sync/pkg/db"
	"erp-sync/pkg/log"
)

type PsqlWatermarkStore struct {
	psql *postgres.PostgresDatastore
}

func NewPsqlWatermarkStore(psql *postgres.PostgresDatastore) *PsqlWatermarkStore {
	return &PsqlWatermarkStore{
		psql: psql,
	}
}

func (store *PsqlWatermarkStore) Get(ctx context.Context, kind models.Kind, direction models.Direction) (*time.Time, error) {
	var at time.Time
	query := `SELECT synced_at FROM sync_watermarks WHERE kind = $1 AND direction = $2`

	err := store.psql.DB.GetContext(ctx, &at, query, kind, direction)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Logger.Error().Str("kind", string(kind)).Str("direction", string(direction)).Err(err).Msg("Failed to get watermark")
		return nil, fmt.Errorf("failed to get watermark: %w", err)
	}
	return &at, nil
}

func (store *PsqlWatermarkStore) Set(ctx context.Context, kind models.Kind, direction models.Direction, at time.Time) error {
	query := `
		INSERT INTO sync_watermarks (kind, direction, synced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, direction)
		DO UPDATE SET synced_at = EXCLUDED.synced_at`

	_, err := store.psql.DB.ExecContext(ctx, query, kind, direction, at)
	if err != nil {
		log.Logger.Error().Str("kind", string(kind)).Str("direction", string(direction)).Err(err).Msg("Failed to set watermark")
		return fmt.Errorf("failed to set watermark: %w", err)
	}
	return nil
}
