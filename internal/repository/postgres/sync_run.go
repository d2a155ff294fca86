package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"erp-sync/internal/models"
	repo "erp-sync/internal/repository"
	postgres "erp-sync/pkg/db"
	"erp-sync/pkg/log"

	"github.com/google/uuid"
)

type PsqlSyncRunStore struct {
	psql *postgres.PostgresDatastore
}

func NewPsqlSyncRunStore(psql *postgres.PostgresDatastore) *PsqlSyncRunStore {
	return &PsqlSyncRunStore{
		psql: psql,
	}
}

type syncRunRow struct {
	ID         uuid.UUID        `db:"id"`
	Kind       models.Kind      `db:"kind"`
	Direction  models.Direction `db:"direction"`
	StartedAt  time.Time        `db:"started_at"`
	FinishedAt time.Time        `db:"finished_at"`
	Status     models.RunStatus `db:"status"`
	Processed  int              `db:"records_processed"`
	Succeeded  int              `db:"records_succeeded"`
	Failed     int              `db:"records_failed"`
	Errors     []byte           `db:"errors"`
}

func (store *PsqlSyncRunStore) Record(ctx context.Context, run *models.SyncRun) error {
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("failed to encode run errors: %w", err)
	}

	query := `
		INSERT INTO sync_runs (id, kind, direction, started_at, finished_at, status, records_processed, records_succeeded, records_failed, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = store.psql.DB.ExecContext(ctx, query,
		run.ID, run.Kind, run.Direction, run.StartedAt, run.FinishedAt,
		run.Status, run.Processed, run.Succeeded, run.Failed, errorsJSON)
	if err != nil {
		log.Logger.Error().Str("kind", string(run.Kind)).Str("direction", string(run.Direction)).Err(err).Msg("Failed to record sync run")
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	log.Logger.Debug().Str("runId", run.ID.String()).Str("status", string(run.Status)).Msg("Successfully recorded sync run")
	return nil
}

func (store *PsqlSyncRunStore) List(ctx context.Context, filter repo.RunFilter) ([]*models.SyncRun, error) {
	conditions := make([]string, 0, 5)
	args := make([]any, 0, 5)
	appendCondition := func(column, op string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	if filter.Kind != nil {
		appendCondition("kind", "=", *filter.Kind)
	}
	if filter.Direction != nil {
		appendCondition("direction", "=", *filter.Direction)
	}
	if filter.Status != nil {
		appendCondition("status", "=", *filter.Status)
	}
	if filter.From != nil {
		appendCondition("started_at", ">=", *filter.From)
	}
	if filter.To != nil {
		appendCondition("started_at", "<=", *filter.To)
	}

	query := `SELECT * FROM sync_runs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []syncRunRow
	err := store.psql.DB.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		log.Logger.Error().Err(err).Msg("Failed to list sync runs")
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}

	runs := make([]*models.SyncRun, 0, len(rows))
	for _, row := range rows {
		run := &models.SyncRun{
			ID:         row.ID,
			Kind:       row.Kind,
			Direction:  row.Direction,
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
			Status:     row.Status,
			Processed:  row.Processed,
			Succeeded:  row.Succeeded,
			Failed:     row.Failed,
		}
		if len(row.Errors) > 0 {
			if err := json.Unmarshal(row.Errors, &run.Errors); err != nil {
				return nil, fmt.Errorf("failed to decode run errors for %s: %w", row.ID, err)
			}
		}
		runs = append(runs, run)
	}
	return runs, nil
}
