// Package localstore is a small durable key/value store holding plain
// JSON-serialized values under stable keys, the server-side counterpart of
// the browser's localStorage. There is no schema versioning: a value that
// fails to read or parse is treated as absent, never as a fatal error.
package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Storage reads and writes raw values under stable keys.
type Storage interface {
	// Get returns the stored value, or false when the key is absent.
	Get(key string) ([]byte, bool)

	// Set writes a value through synchronously. A failed write is the
	// caller's signal to log and carry on with in-memory state.
	Set(key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error
}

// FileStore keeps all keys in one JSON file, rewritten in full on every
// mutation. Suitable for the single-user, single-instance deployments this
// tool targets.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
	data map[string]json.RawMessage
}

// NewFileStore opens (or initializes) the store at path. A missing or
// corrupt file yields an empty store.
func NewFileStore(path string, log zerolog.Logger) *FileStore {
	s := &FileStore{
		path: path,
		log:  log,
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read local store, starting empty")
		}
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Local store is corrupt, starting empty")
		s.data = make(map[string]json.RawMessage)
	}
	return s
}

func (s *FileStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), value...), true
}

func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return s.flush()
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

// flush rewrites the whole file. Caller holds the lock.
func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}

// MemoryStore is an in-memory Storage for tests and ephemeral sessions.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailWrites makes every Set return an error, for exercising the
	// log-and-swallow path.
	FailWrites bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), value...), true
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return os.ErrPermission
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var (
	_ Storage = (*FileStore)(nil)
	_ Storage = (*MemoryStore)(nil)
)
