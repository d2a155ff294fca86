package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"erp-sync/internal/models"
	repo "erp-sync/internal/repository"
	postgres "erp-sync/pkg/db"
)

func newMockDatastore(t *testing.T) (*postgres.PostgresDatastore, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &postgres.PostgresDatastore{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func TestMappingLookupByLocal(t *testing.T) {
	ds, mock := newMockDatastore(t)
	store := NewPsqlMappingStore(ds)

	t.Run("returns mapped remote ID", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT remote_id FROM identity_mappings WHERE kind = $1 AND local_id = $2`)).
			WithArgs(models.KindProduct, int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"remote_id"}).AddRow(int64(77)))

		remoteID, err := store.LookupByLocal(context.Background(), models.KindProduct, 10)

		require.NoError(t, err)
		require.Equal(t, int64(77), remoteID)
	})

	t.Run("returns ErrMappingNotFound when absent", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT remote_id FROM identity_mappings`)).
			WithArgs(models.KindProduct, int64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"remote_id"}))

		_, err := store.LookupByLocal(context.Background(), models.KindProduct, 11)

		require.ErrorIs(t, err, repo.ErrMappingNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMappingLookupByRemote(t *testing.T) {
	ds, mock := newMockDatastore(t)
	store := NewPsqlMappingStore(ds)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT local_id FROM identity_mappings WHERE kind = $1 AND remote_id = $2`)).
		WithArgs(models.KindOrder, int64(300)).
		WillReturnRows(sqlmock.NewRows([]string{"local_id"}).AddRow(int64(5)))

	localID, err := store.LookupByRemote(context.Background(), models.KindOrder, 300)

	require.NoError(t, err)
	require.Equal(t, int64(5), localID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMappingUpsert(t *testing.T) {
	syncedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("inserts or refreshes the mapping", func(t *testing.T) {
		ds, mock := newMockDatastore(t)
		store := NewPsqlMappingStore(ds)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO identity_mappings`)).
			WithArgs(models.KindProduct, int64(10), int64(77), syncedAt).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := store.Upsert(context.Background(), models.KindProduct, 10, 77, syncedAt)

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("translates remote unique violation to ErrMappingConflict", func(t *testing.T) {
		ds, mock := newMockDatastore(t)
		store := NewPsqlMappingStore(ds)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO identity_mappings`)).
			WithArgs(models.KindProduct, int64(11), int64(77), syncedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_identity_mappings_remote"})

		err := store.Upsert(context.Background(), models.KindProduct, 11, 77, syncedAt)

		require.ErrorIs(t, err, repo.ErrMappingConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMappingListByKind(t *testing.T) {
	ds, mock := newMockDatastore(t)
	store := NewPsqlMappingStore(ds)
	syncedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM identity_mappings WHERE kind = $1 ORDER BY local_id`)).
		WithArgs(models.KindInvoice).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "local_id", "remote_id", "last_synced_at"}).
			AddRow(int64(1), "invoice", int64(3), int64(500), syncedAt))

	mappings, err := store.ListByKind(context.Background(), models.KindInvoice)

	require.NoError(t, err)
	require.Len(t, mappings, 1)
	require.Equal(t, int64(3), mappings[0].LocalID)
	require.Equal(t, int64(500), mappings[0].RemoteID)
	require.NoError(t, mock.ExpectationsWereMet())
}
