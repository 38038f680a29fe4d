package indexer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/codescope/codescope-go/internal/models"
)

const snapshotBucket = "file_analyses"

// SnapshotStore persists per-file analyses across process restarts, keyed
// by relative path. A stored entry is only served when its content hash
// still matches, so stale snapshots can never leak into an index.
type SnapshotStore struct {
	db *bolt.DB
}

// OpenSnapshotStore opens (or creates) the snapshot database at path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

// Get returns the stored analysis for path when contentHash matches.
// Any read or decode problem is reported as a plain miss.
func (s *SnapshotStore) Get(path, contentHash string) (*models.FileAnalysis, bool) {
	var fa models.FileAnalysis
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return bolt.ErrBucketNotFound
		}
		data := bucket.Get([]byte(path))
		if data == nil {
			return bolt.ErrBucketNotFound
		}
		return json.Unmarshal(data, &fa)
	})
	if err != nil || fa.ContentHash != contentHash {
		return nil, false
	}
	return &fa, true
}

// Put stores an analysis, replacing any previous entry for its path.
func (s *SnapshotStore) Put(fa *models.FileAnalysis) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		if err != nil {
			return err
		}
		data, err := json.Marshal(fa)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(fa.FilePath), data)
	})
}

// Delete removes the entry for path, if present.
func (s *SnapshotStore) Delete(path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(path))
	})
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
