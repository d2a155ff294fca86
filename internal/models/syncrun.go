package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunSuccess        RunStatus = "success"
	RunPartialFailure RunStatus = "partial_failure"
	RunFailure        RunStatus = "failure"
)

// RecordError describes one failed or degraded record within a run. Warning
// entries (e.g. a status value that fell back to the draft equivalent) ride
// alongside a successful sync of the record.
type RecordError struct {
	LocalID  *int64 `json:"local_id,omitempty"`
	RemoteID *int64 `json:"remote_id,omitempty"`
	Message  string `json:"message"`
	Warning  bool   `json:"warning,omitempty"`
}

// SyncRun is the immutable outcome of one orchestrator pass for one
// (kind, direction) pair. A bidirectional invocation produces two of these.
type SyncRun struct {
	ID         uuid.UUID     `db:"id"`
	Kind       Kind          `db:"kind"`
	Direction  Direction     `db:"direction"`
	StartedAt  time.Time     `db:"started_at"`
	FinishedAt time.Time     `db:"finished_at"`
	Status     RunStatus     `db:"status"`
	Processed  int           `db:"records_processed"`
	Succeeded  int           `db:"records_succeeded"`
	Failed     int           `db:"records_failed"`
	Errors     []RecordError `db:"-"`
}

func NewSyncRun(kind Kind, direction Direction, startedAt time.Time) *SyncRun {
	return &SyncRun{
		ID:        uuid.New(),
		Kind:      kind,
		Direction: direction,
		StartedAt: startedAt,
	}
}

// Finish stamps the end time and derives the run status from the counters:
// success when nothing failed, failure when nothing succeeded but something
// failed, partial_failure otherwise.
func (r *SyncRun) Finish(finishedAt time.Time) {
	r.FinishedAt = finishedAt
	switch {
	case r.Failed == 0:
		r.Status = RunSuccess
	case r.Succeeded == 0:
		r.Status = RunFailure
	default:
		r.Status = RunPartialFailure
	}
}

// FinishAborted marks a run that never reached its candidates, such as a
// failed authentication. The single run-level error carries no record IDs.
func (r *SyncRun) FinishAborted(finishedAt time.Time, msg string) {
	r.Errors = append(r.Errors, RecordError{Message: msg})
	r.FinishedAt = finishedAt
	r.Status = RunFailure
}

// TotalFailure reports whether the run attempted candidates and none of them
// succeeded. The watermark must not advance after such a run.
func (r *SyncRun) TotalFailure() bool {
	return r.Processed > 0 && r.Succeeded == 0
}

func (r *SyncRun) AddError(localID, remoteID *int64, msg string) {
	r.Errors = append(r.Errors, RecordError{LocalID: localID, RemoteID: remoteID, Message: msg})
}

func (r *SyncRun) AddWarning(localID, remoteID *int64, msg string) {
	r.Errors = append(r.Errors, RecordError{LocalID: localID, RemoteID: remoteID, Message: msg, Warning: true})
}
