package repository

import (
	"context"
	"time"

	"erp-sync/internal/models"
)

// MappingStore persists the bijection between local and remote identifiers.
type MappingStore interface {
	// LookupByLocal returns the remote ID mapped to the given local record,
	// or ErrMappingNotFound.
	LookupByLocal(ctx context.Context, kind models.Kind, localID int64) (int64, error)
	// LookupByRemote returns the local ID mapped to the given remote record,
	// or ErrMappingNotFound.
	LookupByRemote(ctx context.Context, kind models.Kind, remoteID int64) (int64, error)
	// Upsert records a mapping, refreshing last_synced_at on re-sync. A remote
	// ID already held by a different local record yields ErrMappingConflict.
	Upsert(ctx context.Context, kind models.Kind, localID, remoteID int64, syncedAt time.Time) error
	ListByKind(ctx context.Context, kind models.Kind) ([]models.IdentityMapping, error)
}

// RunFilter narrows SyncRunStore.List. Nil fields match everything.
type RunFilter struct {
	Kind      *models.Kind
	Direction *models.Direction
	Status    *models.RunStatus
	From      *time.Time
	To        *time.Time
	Limit     int
}

// SyncRunStore is an append-only journal of sync executions.
type SyncRunStore interface {
	Record(ctx context.Context, run *models.SyncRun) error
	// List returns runs matching the filter, most recent first.
	List(ctx context.Context, filter RunFilter) ([]*models.SyncRun, error)
}

// WatermarkStore tracks the last successful sync instant per kind and
// direction, used to select modified-since candidates.
type WatermarkStore interface {
	// Get returns nil when no watermark has been recorded yet.
	Get(ctx context.Context, kind models.Kind, direction models.Direction) (*time.Time, error)
	Set(ctx context.Context, kind models.Kind, direction models.Direction, at time.Time) error
}

// LocalStore reads and writes back-office entity records.
type LocalStore interface {
	// ListModifiedSince returns records of the kind modified strictly after
	// since, in ascending ID order. A nil since selects every record.
	ListModifiedSince(ctx context.Context, kind models.Kind, since *time.Time) ([]models.LocalRecord, error)
	// Get returns the record with the given local ID, or ErrRecordNotFound.
	Get(ctx context.Context, kind models.Kind, localID int64) (models.LocalRecord, error)
	// FindCustomerByEmail reconciles imported partners against existing
	// customers. Returns ErrRecordNotFound when no customer has the email.
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	// Create inserts the record and returns its assigned local ID.
	Create(ctx context.Context, rec models.LocalRecord) (int64, error)
	// Update overwrites the record identified by localID with rec's fields.
	Update(ctx context.Context, localID int64, rec models.LocalRecord) error
}
