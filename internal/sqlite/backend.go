// Package sqlite implements the SQLite Backend. The snapshot is stored in
// three tables, one per sequence, and every Save replaces their contents in a
// single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

// FileName is the database name inside the data directory.
const FileName = "ellie.db"

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend stores the snapshot in a SQLite database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	path     string
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (creating if needed) the database in DataDir and applies the
// schema. Returns ErrAlreadyAttached if already attached.
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
	dbPath, err := filepath.Abs(filepath.Join(dataDir, FileName))
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.path = dbPath
	b.attached = true
	return nil
}

// Detach closes the database connection. After Detach, Load and Save return
// ErrBackendDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}

// Load reads all three tables inside one read transaction.
func (b *Backend) Load(ctx context.Context) (*types.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	snap := types.NewSnapshot()
	if snap.Equipment, err = loadEquipment(ctx, tx); err != nil {
		return nil, err
	}
	if snap.People, err = loadPeople(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Checkouts, err = loadCheckouts(ctx, tx); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save replaces the stored snapshot. Either every row lands or none do.
func (b *Backend) Save(ctx context.Context, snapshot *types.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrBackendDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"checkouts", "equipment", "people"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if err := saveEquipment(ctx, tx, snapshot.Equipment); err != nil {
		return err
	}
	if err := savePeople(ctx, tx, snapshot.People); err != nil {
		return err
	}
	if err := saveCheckouts(ctx, tx, snapshot.Checkouts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Location returns the absolute path of the database file.
func (b *Backend) Location() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}
