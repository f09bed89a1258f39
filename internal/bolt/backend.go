// Package bolt implements a Backend on a BoltDB file. Each sequence of the
// snapshot lives in its own bucket, keyed by position so that a cursor walk
// returns records in insertion order.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

// FileName is the database name inside the data directory.
const FileName = "ellie.bolt"

// openTimeout bounds how long Attach waits for another process's file lock.
const openTimeout = time.Second

const (
	equipmentBucket = "equipment"
	peopleBucket    = "people"
	checkoutsBucket = "checkouts"
)

var _ types.Backend = (*Backend)(nil)

// Backend stores the snapshot in a BoltDB file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	path     string
	db       *bbolt.DB
}

// NewBackend returns a detached backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (creating if needed) the database in DataDir and ensures the
// buckets exist.
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
	path, err := filepath.Abs(filepath.Join(dataDir, FileName))
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("open storage db: %w", err)
	}
	if err := ensureBuckets(db); err != nil {
		_ = db.Close()
		return err
	}

	b.db = db
	b.path = path
	b.attached = true
	return nil
}

// Detach closes the database. It is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	err := b.db.Close()
	b.db = nil
	return err
}

// Load reads every bucket inside one read transaction.
func (b *Backend) Load(ctx context.Context) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	snap := types.NewSnapshot()
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		if snap.Equipment, err = readBucket[types.Equipment](tx, equipmentBucket); err != nil {
			return err
		}
		if snap.People, err = readBucket[types.Person](tx, peopleBucket); err != nil {
			return err
		}
		snap.Checkouts, err = readBucket[types.Checkout](tx, checkoutsBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Save replaces every bucket in one read-write transaction. Bolt commits
// with an fsync, so either the whole snapshot lands or none of it does.
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
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := writeBucket(tx, equipmentBucket, out.Equipment); err != nil {
			return err
		}
		if err := writeBucket(tx, peopleBucket, out.People); err != nil {
			return err
		}
		return writeBucket(tx, checkoutsBucket, out.Checkouts)
	})
}

// Location returns the absolute path of the database file.
func (b *Backend) Location() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

func ensureBuckets(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{equipmentBucket, peopleBucket, checkoutsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// seqKey encodes a position as a big-endian key so byte order matches
// numeric order.
func seqKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}

func readBucket[T any](tx *bbolt.Tx, name string) ([]T, error) {
	bucket := tx.Bucket([]byte(name))
	if bucket == nil {
		return nil, fmt.Errorf("%s bucket is missing", name)
	}
	items := []T{}
	err := bucket.ForEach(func(_, payload []byte) error {
		var item T
		if err := json.Unmarshal(payload, &item); err != nil {
			return fmt.Errorf("unmarshal %s record: %w", name, err)
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func writeBucket[T any](tx *bbolt.Tx, name string, items []T) error {
	if tx.Bucket([]byte(name)) != nil {
		if err := tx.DeleteBucket([]byte(name)); err != nil {
			return fmt.Errorf("clear %s bucket: %w", name, err)
		}
	}
	bucket, err := tx.CreateBucket([]byte(name))
	if err != nil {
		return fmt.Errorf("create %s bucket: %w", name, err)
	}
	for i, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal %s record: %w", name, err)
		}
		if err := bucket.Put(seqKey(i), payload); err != nil {
			return fmt.Errorf("put %s record: %w", name, err)
		}
	}
	return nil
}
