package storage

import (
	"errors"
	"fmt"

	"github.com/myuser/astrobase/internal/storage/kvlog"
)

// Record-level failures. They are returned wrapped in a *RecordError that
// carries the key; match them with errors.Is.
var (
	ErrRecordMissing                = errors.New("record is missing")
	ErrRecordAlreadyMissing         = errors.New("record is missing already")
	ErrRecordAlreadyExists          = errors.New("record already exists")
	ErrRecordAlreadyExistsIdentical = errors.New("record already exists and identical")

	// ErrRecordReserved is returned by Insert and Update when the value is
	// the tombstone marker, which would read back as a deletion.
	ErrRecordReserved = errors.New("record value is reserved")

	// ErrRecordInvalid is returned when the log holds a line that does not
	// decode into exactly a key and a value.
	ErrRecordInvalid = kvlog.ErrInvalidRecord
)

// File-level failures. They are returned wrapped in a *FileError that carries
// the path and the underlying cause.
var (
	ErrFilename   = errors.New("invalid filename")
	ErrOpenFile   = errors.New("failed to open file")
	ErrDeleteFile = errors.New("failed to delete file")
	ErrLockFile   = errors.New("failed to lock file")
	ErrUnlockFile = errors.New("failed to unlock file")
)

// RecordError reports a CRUD contract violation for a single key.
type RecordError struct {
	Key string
	Err error
}

func (e *RecordError) Error() string {
	switch e.Err {
	case ErrRecordMissing:
		return fmt.Sprintf("Record '%s' is missing", e.Key)
	case ErrRecordAlreadyMissing:
		return fmt.Sprintf("Record '%s' is missing already", e.Key)
	case ErrRecordAlreadyExists:
		return fmt.Sprintf("Record '%s' already exists", e.Key)
	case ErrRecordAlreadyExistsIdentical:
		return fmt.Sprintf("Record '%s' already exists and identical", e.Key)
	case ErrRecordReserved:
		return fmt.Sprintf("Record '%s' has a reserved value", e.Key)
	}
	return fmt.Sprintf("Record '%s': %v", e.Key, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func recordError(kind error, key string) error {
	return &RecordError{Key: key, Err: kind}
}

// checkValue rejects values that cannot be stored as-is.
func checkValue(key, value string) error {
	if value == kvlog.Tombstone {
		return recordError(ErrRecordReserved, key)
	}
	return nil
}

// FileError reports an I/O or locking failure on the store's files.
// errors.Is matches both Kind (e.g. ErrLockFile) and the OS cause.
type FileError struct {
	Kind error
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v '%s'", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v '%s': %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fileError(kind error, path string, err error) error {
	return &FileError{Kind: kind, Path: path, Err: err}
}

// IsRecordError reports whether err is a contract outcome (missing, exists,
// identical) rather than a storage failure.
func IsRecordError(err error) bool {
	var re *RecordError
	return errors.As(err, &re)
}
