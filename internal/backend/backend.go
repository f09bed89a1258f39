// Package backend selects a storage Backend by name.
package backend

import (
	"fmt"

	"github.com/mesh-intelligence/ellie/internal/bolt"
	"github.com/mesh-intelligence/ellie/internal/jsonfile"
	"github.com/mesh-intelligence/ellie/internal/memory"
	"github.com/mesh-intelligence/ellie/internal/sqlite"
	"github.com/mesh-intelligence/ellie/pkg/types"
)

// New returns a detached backend for config.Backend.
func New(config types.Config) (types.Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Backend {
	case types.BackendJSON:
		return jsonfile.NewBackend(), nil
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case types.BackendMemory:
		return memory.NewBackend(), nil
	case types.BackendBolt:
		return bolt.NewBackend(), nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, config.Backend)
}

// Open creates the backend for config and attaches it.
func Open(config types.Config) (types.Backend, error) {
	b, err := New(config)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(config); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", config.Backend, err)
	}
	return b, nil
}
