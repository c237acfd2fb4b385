// Package storage manages the on-disk directories backing repositories.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrExist = os.ErrExist

type Store interface {
	// Create makes the directory for localPath, ErrExist when it is already there.
	Create(localPath string) error
	// Remove deletes the directory tree, nil when it is already absent.
	Remove(localPath string) error
	Dir(localPath string) (string, error)
}

type dirStore struct {
	root string
}

func NewStore(root string) (Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &dirStore{root: abs}, nil
}

// Dir resolves localPath under the root, refusing anything that escapes it.
func (s *dirStore) Dir(localPath string) (string, error) {
	clean := filepath.Clean("/" + localPath)
	if clean == "/" {
		return "", fmt.Errorf("empty repository path %q", localPath)
	}
	dir := filepath.Join(s.root, clean)
	if !strings.HasPrefix(dir, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("repository path %q escapes data dir", localPath)
	}
	return dir, nil
}

func (s *dirStore) Create(localPath string) error {
	dir, err := s.Dir(localPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return err
	}
	return os.Mkdir(dir, 0o755)
}

func (s *dirStore) Remove(localPath string) error {
	dir, err := s.Dir(localPath)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
