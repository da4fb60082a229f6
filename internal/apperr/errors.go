package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMappingMissing signals that LINK_MAPPING.json has not been built
	// yet. Consumers must tell the user to run the builder, not fail.
	ErrMappingMissing = errors.New("link mapping not built")
)
