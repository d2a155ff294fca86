package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"erp-sync/internal/models"
	repo "erp-sync/internal/repository"
)

func TestSyncRunRecord(t *testing.T) {
	ds, mock := newMockDatastore(t)
	store := NewPsqlSyncRunStore(ds)

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	run := models.NewSyncRun(models.KindProduct, models.DirectionExport, started)
	run.Processed = 3
	run.Succeeded = 2
	run.Failed = 1
	run.AddError(nil, nil, "remote create failed")
	run.Finish(started.Add(time.Minute))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sync_runs`)).
		WithArgs(run.ID, run.Kind, run.Direction, run.StartedAt, run.FinishedAt,
			models.RunPartialFailure, 3, 2, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Record(context.Background(), run)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncRunList(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	runRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "kind", "direction", "started_at", "finished_at", "status",
			"records_processed", "records_succeeded", "records_failed", "errors",
		}).AddRow(
			"7e6bb9ac-30ab-4733-9f8c-71f169fc1d9a", "product", "export",
			started, started.Add(time.Minute), "partial_failure",
			3, 2, 1, []byte(`[{"local_id":2,"message":"remote create failed"}]`))
	}

	t.Run("returns runs without filters", func(t *testing.T) {
		ds, mock := newMockDatastore(t)
		store := NewPsqlSyncRunStore(ds)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM sync_runs ORDER BY started_at DESC`)).
			WillReturnRows(runRows())

		runs, err := store.List(context.Background(), repo.RunFilter{})

		require.NoError(t, err)
		require.Len(t, runs, 1)
		require.Equal(t, models.KindProduct, runs[0].Kind)
		require.Equal(t, models.RunPartialFailure, runs[0].Status)
		require.Len(t, runs[0].Errors, 1)
		require.Equal(t, int64(2), *runs[0].Errors[0].LocalID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies kind, status and limit filters", func(t *testing.T) {
		ds, mock := newMockDatastore(t)
		store := NewPsqlSyncRunStore(ds)

		kind := models.KindProduct
		status := models.RunPartialFailure
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM sync_runs WHERE kind = $1 AND status = $2 ORDER BY started_at DESC LIMIT $3`)).
			WithArgs(kind, status, 5).
			WillReturnRows(runRows())

		runs, err := store.List(context.Background(), repo.RunFilter{Kind: &kind, Status: &status, Limit: 5})

		require.NoError(t, err)
		require.Len(t, runs, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies time range filters", func(t *testing.T) {
		ds, mock := newMockDatastore(t)
		store := NewPsqlSyncRunStore(ds)

		from := started.Add(-time.Hour)
		to := started.Add(time.Hour)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM sync_runs WHERE started_at >= $1 AND started_at <= $2 ORDER BY started_at DESC`)).
			WithArgs(from, to).
			WillReturnRows(runRows())

		runs, err := store.List(context.Background(), repo.RunFilter{From: &from, To: &to})

		require.NoError(t, err)
		require.Len(t, runs, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
