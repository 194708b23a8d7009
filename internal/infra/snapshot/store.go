// Package snapshot persists the last observed catalog between runs.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/domain"
)

const (
	productsBucketName = "products"
	metaBucketName     = "meta"
	schemaVersionKey   = "schema_version"
	updatedAtKey       = "updated_at"
	schemaVersion      = "1"
)

var ErrStoreClosed = errors.New("snapshot store is closed")

// Store is a bbolt-backed catalog snapshot. Each product is stored
// under its handle as the full JSON ProductState, so nullable fields
// and string-keyed variant ids round-trip exactly.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
	logger *zap.Logger
}

func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if dir := filepath.Dir(trimmed); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure snapshot dir: %w", err)
		}
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: trimmed, logger: logger.Named("snapshot")}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Load returns the persisted catalog, or an empty one when nothing has
// been saved yet. A record that no longer decodes is skipped with a
// warning; a one-time burst of duplicate notifications beats refusing
// to run.
func (s *Store) Load(ctx context.Context) (domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	catalog := domain.Catalog{}
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(productsBucketName))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(key, value []byte) error {
			var product domain.ProductState
			if err := json.Unmarshal(value, &product); err != nil {
				s.logger.Warn("skipping corrupt snapshot record",
					zap.String("handle", string(key)),
					zap.Error(err),
				)
				return nil
			}
			catalog[string(key)] = product
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return catalog, nil
}

// Save replaces the stored catalog with the given one in a single
// transaction. Handles absent from the catalog disappear with the old
// bucket, so delisted products need no explicit deletion tracking.
func (s *Store) Save(ctx context.Context, catalog domain.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(productsBucketName)) != nil {
			if err := tx.DeleteBucket([]byte(productsBucketName)); err != nil {
				return fmt.Errorf("reset products bucket: %w", err)
			}
		}
		bucket, err := tx.CreateBucket([]byte(productsBucketName))
		if err != nil {
			return fmt.Errorf("create products bucket: %w", err)
		}
		for handle, product := range catalog {
			encoded, err := json.Marshal(product)
			if err != nil {
				return fmt.Errorf("encode product %s: %w", handle, err)
			}
			if err := bucket.Put([]byte(handle), encoded); err != nil {
				return fmt.Errorf("write product %s: %w", handle, err)
			}
		}
		meta := tx.Bucket([]byte(metaBucketName))
		stamp := time.Now().UTC().Format(time.RFC3339Nano)
		return meta.Put([]byte(updatedAtKey), []byte(stamp))
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// UpdatedAt reports when the snapshot was last saved, empty when never.
func (s *Store) UpdatedAt() (string, error) {
	var stamp string
	err := s.view(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucketName))
		if meta == nil {
			return nil
		}
		stamp = string(meta.Get([]byte(updatedAtKey)))
		return nil
	})
	return stamp, err
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}

func ensureSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucketName))
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		if meta.Get([]byte(schemaVersionKey)) == nil {
			if err := meta.Put([]byte(schemaVersionKey), []byte(schemaVersion)); err != nil {
				return fmt.Errorf("write schema version: %w", err)
			}
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(productsBucketName)); err != nil {
			return fmt.Errorf("create products bucket: %w", err)
		}
		return nil
	})
}
