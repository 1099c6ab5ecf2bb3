// Package statestore persists transport state snapshots between relay
// runs. The snapshot schema is opaque here; it is whatever the transport's
// SnapshotState returned, stored as JSON under the sink's stream id.
package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const snapshotBucket = "snapshots"

// Store is a BoltDB-backed snapshot store.
type Store struct {
	db *bolt.DB
}

// Open initializes the store, creating the database file and its parent
// directory if needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores the snapshot under the given sink id, replacing any previous
// snapshot.
func (s *Store) Save(sinkID string, state map[string]any) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("state store is not open")
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("snapshot bucket missing")
		}
		return bucket.Put([]byte(sinkID), raw)
	})
}

// Load returns the snapshot stored for the sink id. The second return is
// false when no snapshot exists.
func (s *Store) Load(sinkID string) (map[string]any, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("state store is not open")
	}

	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("snapshot bucket missing")
		}
		if v := bucket.Get([]byte(sinkID)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}

	var state map[string]any
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, true, nil
}

// Delete removes the snapshot for the sink id, if any.
func (s *Store) Delete(sinkID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("state store is not open")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("snapshot bucket missing")
		}
		return bucket.Delete([]byte(sinkID))
	})
}
