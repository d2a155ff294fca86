package erp

import "fmt"

// AuthError means the ERP rejected the credentials or the endpoint is not an
// ERP at all. It fails a whole sync run before any candidate is attempted.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("erp authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("erp authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError means a read addressed a remote ID that does not exist.
type NotFoundError struct {
	Model    string
	RemoteID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("erp record %s/%d not found", e.Model, e.RemoteID)
}

// RemoteWriteError wraps a failed create or update on a remote collection.
// It is a per-candidate error: the orchestrator records it and moves on.
type RemoteWriteError struct {
	Model string
	Op    string
	Err   error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("erp %s on %s failed: %v", e.Op, e.Model, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }
