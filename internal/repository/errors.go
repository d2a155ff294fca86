package repository

import "errors"

var (
	// ErrMappingNotFound means no identity mapping exists for the lookup key.
	ErrMappingNotFound = errors.New("identity mapping not found")
	// ErrMappingConflict means the remote ID is already claimed by a different
	// local record of the same kind. The prior mapping is left untouched.
	ErrMappingConflict = errors.New("remote record already mapped to a different local record")
	// ErrRecordNotFound means a local entity record does not exist.
	ErrRecordNotFound = errors.New("local record not found")
	// ErrDatabaseGeneric covers unexpected datastore failures.
	ErrDatabaseGeneric = errors.New("database error occurred while processing request")
)
