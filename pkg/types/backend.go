package types

import (
	"context"
	"errors"
)

// Backend persists the Snapshot document. Callers attach to a backend, load
// and save whole snapshots, and detach when done.
type Backend interface {
	// Attach connects the Backend to the storage described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached if
	// called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, Load and Save return ErrBackendDetached.
	Detach() error

	// Load returns a fresh copy of the stored document. A store that has
	// never been saved loads as an empty document with all sequences present.
	Load(ctx context.Context) (*Snapshot, error)

	// Save atomically replaces the stored document. Either the whole
	// snapshot is persisted or nothing is.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Location identifies the underlying store (a file path, or a unique
	// name for in-memory stores). Writers to the same location share a lock.
	Location() string
}

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
