package core

import "errors"

// Record store and state manager error taxonomy. Callers match with errors.Is.
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotReady           = errors.New("state not initialized")
)
