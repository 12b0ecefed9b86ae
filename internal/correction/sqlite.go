package correction

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchemaVersion = 1

// SQLiteStore keeps the record as key/value rows of a single table.
type SQLiteStore struct {
	path string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	// immediate transactions take the write lock up front
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000", s.path))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + CACHE_ID + ` (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		db.Close()
		return nil, err
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		db.Close()
		return nil, err
	}
	if version == 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d;", sqliteSchemaVersion)); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func (s *SQLiteStore) Update(fn func(rec *Record) error) error {
	db, err := s.open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrStore, s.path, err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	defer tx.Rollback()

	history, err := getValue(tx, KEY_HISTORY)
	if err != nil {
		return err
	}
	cacheTime, err := getValue(tx, KEY_CACHE_TIME)
	if err != nil {
		return err
	}
	rec, err := decodeRecord(history, cacheTime)
	if err != nil {
		return err
	}

	if err := fn(rec); err != nil {
		return err
	}

	history, cacheTime, err = encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if err := putValue(tx, KEY_HISTORY, history); err != nil {
		return err
	}
	if cacheTime != nil {
		if err := putValue(tx, KEY_CACHE_TIME, cacheTime); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStore, err)
	}
	return nil
}

func getValue(tx *sql.Tx, key string) ([]byte, error) {
	var value string
	err := tx.QueryRow(`SELECT value FROM `+CACHE_ID+` WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStore, key, err)
	}
	return []byte(value), nil
}

func putValue(tx *sql.Tx, key string, value []byte) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO `+CACHE_ID+` (key, value) VALUES (?, ?)`, key, string(value))
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStore, key, err)
	}
	return nil
}
