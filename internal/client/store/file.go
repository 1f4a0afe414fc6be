package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"moodsync/internal/models"
)

var validKey = regexp.MustCompile(`^[a-z0-9_]+$`)

// FileStore keeps each key in <dir>/<key>.json
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Load reads the collection stored under key
func (s *FileStore) Load(_ context.Context, key string) ([]models.CheckIn, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.CheckIn{}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	defer file.Close()

	entries := []models.CheckIn{}
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return []models.CheckIn{}, nil
		}
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	if entries == nil {
		entries = []models.CheckIn{}
	}
	return entries, nil
}

// Save replaces the collection stored under key
func (s *FileStore) Save(_ context.Context, key string, entries []models.CheckIn) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []models.CheckIn{}
	}
	if err := atomicWriteFileJSON(path, entries); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error {
	return nil
}

// atomicWriteFileJSON writes to a temp file and renames it over the target,
// so readers see either the old or the new collection.
func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(f).Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}
