package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BlobStore is the storage contract consumed by services that persist
// binary objects alongside database records.
type BlobStore interface {
	SaveStream(name string, r io.Reader) error
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(olderThan time.Duration, keep map[string]struct{}) ([]string, error)
}

// LocalBlobStore persists objects on disk under a base directory. Object
// names may contain forward-slash separated prefixes ("notices/...").
type LocalBlobStore struct {
	baseDir string
}

// NewLocalBlobStore ensures the base directory exists and returns a handle.
func NewLocalBlobStore(baseDir string) (*LocalBlobStore, error) {
	if baseDir == "" {
		baseDir = "./attachments"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachments directory: %w", err)
	}
	return &LocalBlobStore{baseDir: baseDir}, nil
}

// SaveStream copies from reader into the object.
func (s *LocalBlobStore) SaveStream(name string, r io.Reader) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare attachment directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("write attachment stream: %w", err)
	}
	return nil
}

// Open returns a read-only handle for the stored object.
func (s *LocalBlobStore) Open(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	return file, nil
}

// Delete removes a stored object if present.
func (s *LocalBlobStore) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

// CleanupOlderThan removes objects older than the given age and returns
// their names. Names present in keep are never removed regardless of age;
// the caller passes the set of objects still referenced by live records.
func (s *LocalBlobStore) CleanupOlderThan(olderThan time.Duration, keep map[string]struct{}) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)
	deleted := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if _, referenced := keep[name]; referenced {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		deleted = append(deleted, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup attachments: %w", err)
	}
	return deleted, nil
}

func (s *LocalBlobStore) resolve(name string) (string, error) {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(s.baseDir, name), nil
}
