package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"erp-sync/internal/models"
	repo "erp-sync/internal/repository"
	"erp-sync/pkg/db"
	"erp-sync/pkg/db/migrations"
	"erp-sync/testutil"
)

const localTablesSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'customer',
		status TEXT NOT NULL DEFAULT 'active',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

type StoreIntegrationTestSuite struct {
	suite.Suite
	ctx      context.Context
	pgHelper *testutil.PostgresHelper
	db       *db.PostgresDatastore
}

func TestStoreIntegrationSuite(t *testing.T) {
	if os.Getenv("ERP_SYNC_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration tests, set ERP_SYNC_INTEGRATION_TESTS=true to run")
	}
	suite.Run(t, new(StoreIntegrationTestSuite))
}

func (suite *StoreIntegrationTestSuite) SetupSuite() {
	var err error
	suite.ctx = context.Background()
	suite.pgHelper, err = testutil.NewPostgresContainer(suite.T(), suite.ctx)
	suite.NoError(err, "Failed to create Postgres test container")

	suite.db, err = db.NewPostgresDatastore(suite.pgHelper.Config, migrations.NewPostgresMigration())
	suite.NoError(err, "Failed to create Postgres datastore")

	suite.NoError(suite.pgHelper.ExecutePsqlCommand(suite.ctx, localTablesSchema))
}

func (suite *StoreIntegrationTestSuite) SetupTest() {
	suite.pgHelper.Start(suite.ctx)
	suite.pgHelper.ExecutePsqlCommand(suite.ctx, "TRUNCATE TABLE identity_mappings, sync_runs, sync_watermarks, users")
}

func (suite *StoreIntegrationTestSuite) TearDownSuite() {
	if suite.db != nil {
		suite.db.Close()
	}
	if suite.pgHelper != nil {
		err := suite.pgHelper.Terminate(suite.ctx)
		if err != nil {
			log.Printf("Error terminating container: %v", err)
		}
	}
}

func (suite *StoreIntegrationTestSuite) TestMappingBijection() {
	store := NewPsqlMappingStore(suite.db)
	syncedAt := time.Now().UTC().Truncate(time.Millisecond)

	suite.NoError(store.Upsert(suite.ctx, models.KindProduct, 10, 77, syncedAt))

	remoteID, err := store.LookupByLocal(suite.ctx, models.KindProduct, 10)
	suite.NoError(err)
	suite.Equal(int64(77), remoteID)

	localID, err := store.LookupByRemote(suite.ctx, models.KindProduct, 77)
	suite.NoError(err)
	suite.Equal(int64(10), localID)

	// Re-sync refreshes, it does not duplicate.
	suite.NoError(store.Upsert(suite.ctx, models.KindProduct, 10, 77, syncedAt.Add(time.Minute)))
	mappings, err := store.ListByKind(suite.ctx, models.KindProduct)
	suite.NoError(err)
	suite.Len(mappings, 1)

	// A second local record cannot claim the same remote record.
	err = store.Upsert(suite.ctx, models.KindProduct, 11, 77, syncedAt)
	suite.ErrorIs(err, repo.ErrMappingConflict)

	// The same remote ID is fine for a different kind.
	suite.NoError(store.Upsert(suite.ctx, models.KindOrder, 10, 77, syncedAt))
}

func (suite *StoreIntegrationTestSuite) TestMappingNotFound() {
	store := NewPsqlMappingStore(suite.db)

	_, err := store.LookupByLocal(suite.ctx, models.KindProduct, 999)
	suite.ErrorIs(err, repo.ErrMappingNotFound)

	_, err = store.LookupByRemote(suite.ctx, models.KindProduct, 999)
	suite.ErrorIs(err, repo.ErrMappingNotFound)
}

func (suite *StoreIntegrationTestSuite) TestWatermarkRoundTrip() {
	store := NewPsqlWatermarkStore(suite.db)

	at, err := store.Get(suite.ctx, models.KindInvoice, models.DirectionExport)
	suite.NoError(err)
	suite.Nil(at)

	first := time.Now().UTC().Truncate(time.Millisecond)
	suite.NoError(store.Set(suite.ctx, models.KindInvoice, models.DirectionExport, first))

	at, err = store.Get(suite.ctx, models.KindInvoice, models.DirectionExport)
	suite.NoError(err)
	suite.True(at.Equal(first))

	// Directions keep independent watermarks.
	at, err = store.Get(suite.ctx, models.KindInvoice, models.DirectionImport)
	suite.NoError(err)
	suite.Nil(at)

	second := first.Add(time.Hour)
	suite.NoError(store.Set(suite.ctx, models.KindInvoice, models.DirectionExport, second))
	at, err = store.Get(suite.ctx, models.KindInvoice, models.DirectionExport)
	suite.NoError(err)
	suite.True(at.Equal(second))
}

func (suite *StoreIntegrationTestSuite) TestSyncRunJournalRoundTrip() {
	store := NewPsqlSyncRunStore(suite.db)

	started := time.Now().UTC().Truncate(time.Millisecond)
	run := models.NewSyncRun(models.KindOrder, models.DirectionExport, started)
	run.Processed = 2
	run.Succeeded = 1
	run.Failed = 1
	run.AddError(ptrInt64(5), nil, "remote create failed")
	run.AddWarning(ptrInt64(6), ptrInt64(301), "unknown order status")
	run.Finish(started.Add(30 * time.Second))

	suite.NoError(store.Record(suite.ctx, run))

	kind := models.KindOrder
	runs, err := store.List(suite.ctx, repo.RunFilter{Kind: &kind})
	suite.NoError(err)
	suite.Len(runs, 1)
	suite.Equal(run.ID, runs[0].ID)
	suite.Equal(models.RunPartialFailure, runs[0].Status)
	suite.Len(runs[0].Errors, 2)
	suite.Equal(int64(5), *runs[0].Errors[0].LocalID)
	suite.True(runs[0].Errors[1].Warning)
}

func (suite *StoreIntegrationTestSuite) TestLocalCustomerLifecycle() {
	store := NewPsqlLocalStore(suite.db)

	customer := &models.Customer{
		FirstName: "Dana",
		LastName:  "Reed",
		Email:     "dana@example.com",
		Status:    "active",
	}

	id, err := store.Create(suite.ctx, customer)
	suite.NoError(err)
	suite.NotZero(id)

	found, err := store.FindCustomerByEmail(suite.ctx, "DANA@example.com")
	suite.NoError(err)
	suite.Equal(id, found.ID)

	updated := testutil.CopyStruct(found)
	updated.Phone = "555-0100"
	suite.NoError(store.Update(suite.ctx, id, updated))

	rec, err := store.Get(suite.ctx, models.KindCustomer, id)
	suite.NoError(err)
	suite.Equal("555-0100", rec.(*models.Customer).Phone)

	records, err := store.ListModifiedSince(suite.ctx, models.KindCustomer, nil)
	suite.NoError(err)
	suite.Len(records, 1)
}

func ptrInt64(v int64) *int64 {
	return &v
}
