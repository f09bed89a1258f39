// Package jsonfile implements the JSON file Backend. The whole snapshot lives
// in one document, data.json, inside the data directory and is replaced
// atomically on every save.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

// FileName is the document name inside the data directory.
const FileName = "data.json"

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend reads and writes the snapshot document on disk. It holds no copy of
// the data between calls, so every Load sees what is on disk.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	path     string
}

// NewBackend creates a detached JSON file backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach creates DataDir if needed and points the backend at its document.
// The document itself is created by the first Save.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	abs, err := filepath.Abs(filepath.Join(dataDir, FileName))
	if err != nil {
		return fmt.Errorf("resolving data file: %w", err)
	}

	b.path = abs
	b.attached = true
	return nil
}

// Detach releases the backend. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attached = false
	return nil
}

// Load reads the document. A missing file loads as an empty document.
func (b *Backend) Load(ctx context.Context) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return readSnapshot(b.path)
}

// Save writes the document with the temp-file, fsync, rename pattern.
func (b *Backend) Save(ctx context.Context, snapshot *types.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrBackendDetached
	}

	out := snapshot.Clone()
	out.Normalize()
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return writeFileAtomic(b.path, append(data, '\n'))
}

// Location returns the absolute path of the document.
func (b *Backend) Location() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

func readSnapshot(path string) (*types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	snap.Normalize()
	return &snap, nil
}
