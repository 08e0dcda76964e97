// Package artifacts persists trained model artifacts. The registry references
// artifacts by location and must never point at a missing or partially
// written file, so writes go through a temp file and an atomic rename.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store saves and loads model artifact bytes by location.
type Store interface {
	// Save durably writes data and returns the location to register.
	Save(name string, data []byte) (string, error)
	// Load reads the artifact bytes at location.
	Load(location string) ([]byte, error)
}

// FileStore keeps artifacts in a local directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the artifact directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes data to a temp file, syncs it to disk, then renames it into
// place. The returned location is only visible once the bytes are durable.
func (s *FileStore) Save(name string, data []byte) (string, error) {
	location := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp artifact file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.Rename(tmpName, location); err != nil {
		return "", fmt.Errorf("failed to finalize artifact %q: %w", location, err)
	}
	return location, nil
}

// Load reads the artifact at location.
func (s *FileStore) Load(location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %q: %w", location, err)
	}
	return data, nil
}
