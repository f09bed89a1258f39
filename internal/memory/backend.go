// Package memory implements an in-process Backend. Nothing survives Detach;
// it serves tests and throwaway runs.
package memory

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend keeps the snapshot in memory. Load and Save copy the document so
// callers never share memory with the stored state.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	location string
	snap     *types.Snapshot
}

// NewBackend creates a detached in-memory backend.
func NewBackend() *Backend {
	return &Backend{location: "memory:" + types.NewID()}
}

// Attach starts the backend with an empty document. DataDir is ignored.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	b.snap = types.NewSnapshot()
	b.attached = true
	return nil
}

// Detach drops the stored document. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attached = false
	b.snap = nil
	return nil
}

// Load returns a copy of the stored document.
func (b *Backend) Load(ctx context.Context) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return b.snap.Clone(), nil
}

// Save replaces the stored document with a copy of snapshot.
func (b *Backend) Save(ctx context.Context, snapshot *types.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrBackendDetached
	}
	next := snapshot.Clone()
	next.Normalize()
	b.snap = next
	return nil
}

// Location returns a name unique to this backend instance.
func (b *Backend) Location() string {
	return b.location
}
