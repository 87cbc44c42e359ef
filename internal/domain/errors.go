package domain

import "errors"

// Sentinel error kinds surfaced by the storage and handler layers. Callers
// classify failures with errors.Is; wrapped messages carry the context.
var (
	// ErrNotFound marks a missing referenced user, moderator, word or dialect.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed input rejected before any database access.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a duplicate-key violation on create.
	ErrConflict = errors.New("conflict")
	// ErrDatabase marks any other storage failure, including integrity checks
	// such as a delete affecting zero documents.
	ErrDatabase = errors.New("database error")
)
