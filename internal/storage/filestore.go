package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileStore persists key-value state as a JSON object on disk. Every
// operation is a read-modify-write under a sibling flock, so separate
// lenscap processes see each other's writes and never clobber them.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore builds a FileStore rooted at the provided path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Get returns the stored value for key and whether it was present.
func (s *FileStore) Get(key string) (string, bool, error) {
	if err := s.ensureDir(); err != nil {
		return "", false, err
	}
	if err := s.lock.RLock(); err != nil {
		return "", false, fmt.Errorf("lock state file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

// Set stores value under key.
func (s *FileStore) Set(key, value string) error {
	return s.update(func(values map[string]string) {
		values[key] = value
	})
}

// Delete removes the given keys in a single write.
func (s *FileStore) Delete(keys ...string) error {
	return s.update(func(values map[string]string) {
		for _, key := range keys {
			delete(values, key)
		}
	})
}

func (s *FileStore) update(mutate func(map[string]string)) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	values, err := s.read()
	if err != nil {
		return err
	}
	mutate(values)
	return s.write(values)
}

// ensureDir creates the parent directory so the lock file can be opened on
// a fresh install, before the state file has ever been written.
func (s *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure state directory: %w", err)
	}
	return nil
}

// read loads current state. A missing file resolves to an empty map.
func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	return values, nil
}

// write persists state with restricted permissions; the file carries tokens.
func (s *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
