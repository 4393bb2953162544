package core

import "github.com/google/uuid"

// RunID identifies a single analysis invocation for audit trails.
type RunID string

// NewRunID generates a fresh run identifier.
func NewRunID() RunID {
	return RunID(uuid.NewString())
}
