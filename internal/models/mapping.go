package models

import "time"

// IdentityMapping links one back-office record to one ERP record of the same
// kind. The pair (kind, local_id) and the pair (kind, remote_id) are both
// unique, so the mapping is a bijection per kind. Rows are never deleted
// automatically; stale mappings are tolerated.
type IdentityMapping struct {
	ID           int64     `db:"id"`
	Kind         Kind      `db:"kind"`
	LocalID      int64     `db:"local_id"`
	RemoteID     int64     `db:"remote_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
}
