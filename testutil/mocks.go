package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"erp-sync/internal/erp"
	"erp-sync/internal/models"
	"erp-sync/internal/repository"
)

// ********
//
// MockERPClient is a mock implementation of the erp.Client interface
//
// ********
type MockERPClient struct {
	mock.Mock
}

func (m *MockERPClient) Authenticate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockERPClient) Search(ctx context.Context, model string, domain []any) ([]int64, error) {
	args := m.Called(ctx, model, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockERPClient) SearchRead(ctx context.Context, model string, domain []any, fields []string) ([]erp.Record, error) {
	args := m.Called(ctx, model, domain, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]erp.Record), args.Error(1)
}

func (m *MockERPClient) Read(ctx context.Context, model string, id int64, fields []string) (erp.Record, error) {
	args := m.Called(ctx, model, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(erp.Record), args.Error(1)
}

func (m *MockERPClient) Create(ctx context.Context, model string, fields erp.Record) (int64, error) {
	args := m.Called(ctx, model, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockERPClient) Update(ctx context.Context, model string, id int64, fields erp.Record) error {
	args := m.Called(ctx, model, id, fields)
	return args.Error(0)
}

// ********
//
// MockMappingStore is a mock implementation of the repository.MappingStore interface
//
// ********
type MockMappingStore struct {
	mock.Mock
}

func (m *MockMappingStore) LookupByLocal(ctx context.Context, kind models.Kind, localID int64) (int64, error) {
	args := m.Called(ctx, kind, localID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMappingStore) LookupByRemote(ctx context.Context, kind models.Kind, remoteID int64) (int64, error) {
	args := m.Called(ctx, kind, remoteID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMappingStore) Upsert(ctx context.Context, kind models.Kind, localID, remoteID int64, syncedAt time.Time) error {
	args := m.Called(ctx, kind, localID, remoteID, syncedAt)
	return args.Error(0)
}

func (m *MockMappingStore) ListByKind(ctx context.Context, kind models.Kind) ([]models.IdentityMapping, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.IdentityMapping), args.Error(1)
}

// ********
//
// MockSyncRunStore is a mock implementation of the repository.SyncRunStore interface
//
// ********
type MockSyncRunStore struct {
	mock.Mock
}

func (m *MockSyncRunStore) Record(ctx context.Context, run *models.SyncRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockSyncRunStore) List(ctx context.Context, filter repository.RunFilter) ([]*models.SyncRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SyncRun), args.Error(1)
}

// ********
//
// MockWatermarkStore is a mock implementation of the repository.WatermarkStore interface
//
// ********
type MockWatermarkStore struct {
	mock.Mock
}

func (m *MockWatermarkStore) Get(ctx context.Context, kind models.Kind, direction models.Direction) (*time.Time, error) {
	args := m.Called(ctx, kind, direction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockWatermarkStore) Set(ctx context.Context, kind models.Kind, direction models.Direction, at time.Time) error {
	args := m.Called(ctx, kind, direction, at)
	return args.Error(0)
}

// ********
//
// MockLocalStore is a mock implementation of the repository.LocalStore interface
//
// ********
type MockLocalStore struct {
	mock.Mock
}

func (m *MockLocalStore) ListModifiedSince(ctx context.Context, kind models.Kind, since *time.Time) ([]models.LocalRecord, error) {
	args := m.Called(ctx, kind, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LocalRecord), args.Error(1)
}

func (m *MockLocalStore) Get(ctx context.Context, kind models.Kind, localID int64) (models.LocalRecord, error) {
	args := m.Called(ctx, kind, localID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.LocalRecord), args.Error(1)
}

func (m *MockLocalStore) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockLocalStore) Create(ctx context.Context, rec models.LocalRecord) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLocalStore) Update(ctx context.Context, localID int64, rec models.LocalRecord) error {
	args := m.Called(ctx, localID, rec)
	return args.Error(0)
}
