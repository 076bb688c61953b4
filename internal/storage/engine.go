package storage

import "fmt"

// Backend is the CRUD contract shared by every storage variant.
// The same calling code and the same tests run unchanged against any of them.
type Backend interface {
	// Clear removes every record.
	Clear() error

	// Get returns the current value of key, or ErrRecordMissing.
	Get(key string) (string, error)

	// Insert stores a new record. It fails with ErrRecordAlreadyExists if key
	// currently resolves to a value; a deleted key may be inserted again.
	// The tombstone value is refused with ErrRecordReserved.
	Insert(key, value string) error

	// Delete removes key and returns the value it held, or fails with
	// ErrRecordAlreadyMissing.
	Delete(key string) (string, error)

	// Update replaces the value of an existing key. It fails with
	// ErrRecordMissing if the key is absent and with
	// ErrRecordAlreadyExistsIdentical if value equals the current one.
	// The tombstone value is refused with ErrRecordReserved.
	Update(key, value string) error

	// Len returns the number of live keys.
	Len() (int, error)
}

// Backend names accepted by Config.Backend.
const (
	BackendInMemory   = "inmemory"
	BackendPersistent = "persistent"
)

// Config selects and configures a backend.
type Config struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// Open constructs the backend named by cfg.
func Open(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case BackendInMemory:
		return NewMemoryStore(), nil
	case BackendPersistent:
		s, err := NewPersistentStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
