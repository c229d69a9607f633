package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements the Storage interface using local disk.
// It resolves plain file paths and stages downloaded sources in tempDir.
type LocalStorage struct {
	tempDir string
}

// NewLocalStorage creates a new LocalStorage instance.
// If tempDir is empty, <os.TempDir()>/audiosplit is used.
// The directory is created if it doesn't exist.
func NewLocalStorage(tempDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "audiosplit")
	}

	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	return &LocalStorage{tempDir: tempDir}, nil
}

// TempDir returns the staging directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// Fetch resolves source as a local path and checks that it is a regular file.
func (s *LocalStorage) Fetch(ctx context.Context, source string) (Source, error) {
	select {
	case <-ctx.Done():
		return Source{}, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path, err := filepath.Abs(source)
	if err != nil {
		return Source{}, fmt.Errorf("resolve %s: %w", source, err)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Source{}, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	if err != nil {
		return Source{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}

	return Source{Path: path}, nil
}

// stage writes data to <tempDir>/<unique>/<name> so that the staged file
// keeps its original base name and gets a private output directory.
func (s *LocalStorage) stage(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dir, err := os.MkdirTemp(s.tempDir, "src-*")
	if err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}

	fileName := filepath.Join(dir, filepath.Base(name))
	f, err := os.Create(fileName) // #nosec G304 - name is reduced to its base
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("create staged file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("write staged file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("close staged file: %w", err)
	}

	return fileName, nil
}

// CleanupTemp removes the specified staged files.
// It continues cleanup even if some files fail to delete,
// returning the first error encountered.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove staged file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// Verify interface implementation at compile time.
var _ Storage = (*LocalStorage)(nil)
