package erp

import "context"

// Client is the retry-free RPC surface of the remote ERP's object-CRUD
// protocol. Every method is a single logical call; errors are structured and
// passed upward uninterpreted. Batching, retries and candidate selection all
// live above this interface.
type Client interface {
	// Authenticate opens a session. All other calls require it.
	Authenticate(ctx context.Context) error
	// Search returns the IDs of remote records matching the domain filter.
	Search(ctx context.Context, model string, domain []any) ([]int64, error)
	// SearchRead returns matching remote records with the given fields.
	SearchRead(ctx context.Context, model string, domain []any, fields []string) ([]Record, error)
	// Read fetches one remote record by ID.
	Read(ctx context.Context, model string, id int64, fields []string) (Record, error)
	// Create inserts a remote record and returns its new ID.
	Create(ctx context.Context, model string, fields Record) (int64, error)
	// Update overwrites fields of an existing remote record.
	Update(ctx context.Context, model string, id int64, fields Record) error
}
