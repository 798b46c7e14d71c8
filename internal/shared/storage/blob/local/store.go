package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"certificate-backend/internal/shared/storage/blob"
)

// Store implements blob.Store on the local filesystem.
type Store struct {
	root string
}

// New creates a local blob store rooted at root.
func New(root string) *Store {
	if root == "" {
		root = "."
	}
	return &Store{root: root}
}

// Write stores content at {root}/upload/{userID}/{fileName}. An existing
// file at the target path is never overwritten. Partial files left by a
// failed write are removed.
func (s *Store) Write(ctx context.Context, userID, fileName string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := blob.Key(userID, fileName)
	fullPath := filepath.Join(s.root, filepath.FromSlash(key))

	if _, err := os.Stat(fullPath); err == nil {
		return "", blob.ErrExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", fullPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", blob.ErrExists
		}
		return "", fmt.Errorf("open file: %w", err)
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("close file: %w", err)
	}

	return key, nil
}

var _ blob.Store = (*Store)(nil)
