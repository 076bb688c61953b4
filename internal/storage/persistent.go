package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/myuser/astrobase/internal/storage/kvlog"
)

// PersistentStore implements Backend on an append-only record log.
//
// Every operation, reads included, runs under an exclusive advisory lock on
// "<path>.lock", so the scan-then-append of one call never interleaves with
// another call in this or any other process. Lock acquisition does not time
// out.
type PersistentStore struct {
	path     string
	lockPath string
}

// NewPersistentStore returns a store backed by the log at path. The file is
// created by the first write.
func NewPersistentStore(path string) (*PersistentStore, error) {
	if path == "" || strings.ContainsRune(path, 0) {
		return nil, fileError(ErrFilename, path, nil)
	}
	return &PersistentStore{
		path:     path,
		lockPath: path + ".lock",
	}, nil
}

// Path returns the data file location.
func (s *PersistentStore) Path() string {
	return s.path
}

// resolve returns the current value of key. A missing data file resolves
// every key to absent. Caller holds the lock.
func (s *PersistentStore) resolve(key string) (string, bool, error) {
	l, err := kvlog.OpenRead(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fileError(ErrOpenFile, s.path, err)
	}
	defer l.Close()

	value, found, err := l.FindLast(key)
	if err != nil {
		return "", false, logError("scan", s.path, err)
	}
	return value, found, nil
}

// appendRecord appends one record to the data file, creating it if absent.
// Caller holds the lock.
func (s *PersistentStore) appendRecord(key, value string) error {
	l, err := kvlog.OpenAppend(s.path)
	if err != nil {
		return fileError(ErrOpenFile, s.path, err)
	}
	if err := l.Append(key, value); err != nil {
		l.Close()
		return fmt.Errorf("append to %s: %w", s.path, err)
	}
	if err := l.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

// logError annotates an I/O failure with the operation and path. Malformed
// records pass through as they already carry their line.
func logError(op, path string, err error) error {
	if errors.Is(err, kvlog.ErrInvalidRecord) {
		return err
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}

// Clear removes the data file. A store that was never written is already
// clear.
func (s *PersistentStore) Clear() error {
	return withLock(s.lockPath, func() error {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fileError(ErrDeleteFile, s.path, err)
		}
		return nil
	})
}

func (s *PersistentStore) Get(key string) (value string, err error) {
	err = withLock(s.lockPath, func() error {
		v, found, err := s.resolve(key)
		if err != nil {
			return err
		}
		if !found {
			return recordError(ErrRecordMissing, key)
		}
		value = v
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *PersistentStore) Insert(key, value string) error {
	if err := checkValue(key, value); err != nil {
		return err
	}
	return withLock(s.lockPath, func() error {
		_, found, err := s.resolve(key)
		if err != nil {
			return err
		}
		if found {
			return recordError(ErrRecordAlreadyExists, key)
		}
		return s.appendRecord(key, value)
	})
}

func (s *PersistentStore) Delete(key string) (deleted string, err error) {
	err = withLock(s.lockPath, func() error {
		v, found, err := s.resolve(key)
		if err != nil {
			return err
		}
		if !found {
			return recordError(ErrRecordAlreadyMissing, key)
		}
		if err := s.appendRecord(key, kvlog.Tombstone); err != nil {
			return err
		}
		deleted = v
		return nil
	})
	if err != nil {
		return "", err
	}
	return deleted, nil
}

func (s *PersistentStore) Update(key, value string) error {
	if err := checkValue(key, value); err != nil {
		return err
	}
	return withLock(s.lockPath, func() error {
		current, found, err := s.resolve(key)
		if err != nil {
			return err
		}
		if !found {
			return recordError(ErrRecordMissing, key)
		}
		if current == value {
			return recordError(ErrRecordAlreadyExistsIdentical, key)
		}
		return s.appendRecord(key, value)
	})
}

// Len resolves the whole log and counts the live keys.
func (s *PersistentStore) Len() (n int, err error) {
	err = withLock(s.lockPath, func() error {
		l, err := kvlog.OpenRead(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fileError(ErrOpenFile, s.path, err)
		}
		defer l.Close()

		live, _, err := l.Snapshot()
		if err != nil {
			return logError("scan", s.path, err)
		}
		n = len(live)
		return nil
	})
	return n, err
}

// Compact rewrites the log so it holds one record per live key. Superseded
// and tombstoned records are dropped. Readers wait on the same lock, so none
// observes a partially written log.
func (s *PersistentStore) Compact() (kvlog.CompactStats, error) {
	var stats kvlog.CompactStats
	err := withLock(s.lockPath, func() error {
		var err error
		stats, err = kvlog.Compact(s.path, s.path+".compact-"+uuid.NewString())
		if err != nil {
			return logError("compact", s.path, err)
		}
		return nil
	})
	return stats, err
}
