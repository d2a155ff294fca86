package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erp-sync/internal/config"
	"erp-sync/internal/models"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Sync(ctx context.Context, kind models.Kind, direction models.Direction) ([]*models.SyncRun, error) {
	args := m.Called(ctx, kind, direction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SyncRun), args.Error(1)
}

func rules(enabled ...models.Kind) config.SyncRules {
	rule := func(kind models.Kind) config.KindRule {
		r := config.KindRule{IntervalMinutes: 30, Direction: "bidirectional"}
		for _, e := range enabled {
			if e == kind {
				r.Enabled = true
			}
		}
		return r
	}
	return config.SyncRules{
		Products:  rule(models.KindProduct),
		Customers: rule(models.KindCustomer),
		Orders:    rule(models.KindOrder),
		Invoices:  rule(models.KindInvoice),
	}
}

func TestStartRegistersEnabledKindsOnly(t *testing.T) {
	s := New(new(mockRunner), rules(models.KindProduct, models.KindOrder))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Equal(t, 2, s.Entries())
}

func TestStartFailsWithNothingEnabled(t *testing.T) {
	s := New(new(mockRunner), rules())

	require.Error(t, s.Start(context.Background()))
}

func TestJobInvokesEngineWithConfiguredDirection(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Sync", mock.Anything, models.KindInvoice, models.DirectionImport).
		Return([]*models.SyncRun{}, nil)
	s := New(runner, rules())

	job := s.jobFor(context.Background(), models.KindInvoice, config.KindRule{Direction: "import"})
	job()

	runner.AssertExpectations(t)
}

func TestJobSkipsAfterCancellation(t *testing.T) {
	runner := new(mockRunner)
	s := New(runner, rules())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := s.jobFor(ctx, models.KindProduct, config.KindRule{Direction: "export"})
	job()

	runner.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything, mock.Anything)
}
