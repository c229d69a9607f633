// Package storage resolves split sources to local files. Local paths are
// used in place; s3:// objects are staged into a temporary directory first.
package storage

import (
	"context"
	"errors"
)

// ErrSourceNotFound is returned when the requested source does not exist.
var ErrSourceNotFound = errors.New("source not found")

// Source is a local file ready to be split.
type Source struct {
	// Path is the local file path.
	Path string
	// Temporary is true when Path is a staged copy the caller should
	// remove with CleanupTemp once the split is finished.
	Temporary bool
}

// Storage defines how split sources are made available on local disk.
type Storage interface {
	// Fetch resolves source to a local file.
	// Returns an error wrapping ErrSourceNotFound if it does not exist.
	Fetch(ctx context.Context, source string) (Source, error)

	// CleanupTemp removes the specified staged files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error
}
