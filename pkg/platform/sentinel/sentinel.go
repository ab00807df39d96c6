package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, feeds and chain adapters
// return these (optionally wrapped) so services can translate them into
// domain errors:
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: write would overwrite a settled record
//   - ErrInvalidState: entity is in the wrong state for the requested operation
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrClosed: the handle has already been released
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrClosed       = errors.New("closed")
)
