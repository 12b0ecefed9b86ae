package correction

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps the record in a bbolt file. The file is opened for each
// Update; bbolt's file lock serializes concurrent processes.
type BoltStore struct {
	path        string
	lockTimeout time.Duration
}

func NewBoltStore(path string) *BoltStore {
	return &BoltStore{
		path:        path,
		lockTimeout: 5 * time.Second,
	}
}

func (s *BoltStore) Update(fn func(rec *Record) error) error {
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: s.lockTimeout})
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrStore, s.path, err)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(CACHE_ID))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}

		rec, err := decodeRecord(bucket.Get([]byte(KEY_HISTORY)), bucket.Get([]byte(KEY_CACHE_TIME)))
		if err != nil {
			return err
		}

		if err := fn(rec); err != nil {
			return err
		}

		history, cacheTime, err := encodeRecord(rec)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}
		if err := bucket.Put([]byte(KEY_HISTORY), history); err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}
		if cacheTime != nil {
			if err := bucket.Put([]byte(KEY_CACHE_TIME), cacheTime); err != nil {
				return fmt.Errorf("%w: %w", ErrStore, err)
			}
		}
		return nil
	})
}
