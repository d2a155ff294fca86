package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSyncRunFinishDerivesStatus(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(time.Minute)

	testCases := []struct {
		name      string
		succeeded int
		failed    int
		expected  RunStatus
	}{
		{name: "all succeeded", succeeded: 5, failed: 0, expected: RunSuccess},
		{name: "nothing to do", succeeded: 0, failed: 0, expected: RunSuccess},
		{name: "all failed", succeeded: 0, failed: 5, expected: RunFailure},
		{name: "mixed outcome", succeeded: 3, failed: 2, expected: RunPartialFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			run := NewSyncRun(KindProduct, DirectionExport, started)
			run.Processed = tc.succeeded + tc.failed
			run.Succeeded = tc.succeeded
			run.Failed = tc.failed

			run.Finish(finished)

			require.Equal(t, tc.expected, run.Status)
			require.Equal(t, finished, run.FinishedAt)
		})
	}
}

func TestSyncRunTotalFailure(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	run := NewSyncRun(KindOrder, DirectionImport, started)
	require.False(t, run.TotalFailure(), "a run with no candidates is not a total failure")

	run.Processed = 3
	run.Failed = 3
	require.True(t, run.TotalFailure())

	run.Succeeded = 1
	require.False(t, run.TotalFailure())
}

func TestSyncRunFinishAborted(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(time.Second)

	run := NewSyncRun(KindInvoice, DirectionExport, started)
	run.FinishAborted(finished, "authentication failed: invalid credentials")

	require.Equal(t, RunFailure, run.Status)
	require.Equal(t, finished, run.FinishedAt)
	require.Len(t, run.Errors, 1)
	require.Nil(t, run.Errors[0].LocalID)
	require.Nil(t, run.Errors[0].RemoteID)
	require.Contains(t, run.Errors[0].Message, "authentication failed")
}
