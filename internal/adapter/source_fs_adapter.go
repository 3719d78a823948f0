// Package adapter contains the infrastructure adapters (filesystem, linter
// subprocess, GeoJSON decoding, report storage) used by the domain layer.
package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	m "geokit.dev/tools/geokit/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the lint runner relies
// on, so traversal and scratch handling can be tested without touching the
// real layout of a project.
type SourceFSAdapter interface {
	// Walk traverses root recursively, calling fn for every entry.
	Walk(ctx context.Context, root m.Path, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// FileInfo returns metadata for a path so callers can check existence or
	// distinguish between files and directories.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)

	// CreateScratchFile writes content to a new, uniquely named file in dir.
	// pattern follows os.CreateTemp semantics.
	CreateScratchFile(ctx context.Context, dir, pattern string, content []byte) (m.Path, error)

	// RemoveFile deletes a single file. A missing file is not an error.
	RemoveFile(ctx context.Context, path m.Path) error

	// RelPath returns the relative path from base to target.
	RelPath(ctx context.Context, base, target m.Path) (m.Path, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type into the domain.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over every entry under root. A symlinked root is followed;
// paths handed to fn stay under root as given. Symlinks below the root are
// reported as such and not followed. The walk stops early when ctx is
// cancelled.
func (a *LocalSourceFSAdapter) Walk(ctx context.Context, root m.Path, fn FilepathWalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := filepath.EvalSymlinks(string(root))
	if err != nil {
		return fn(string(root), nil, err)
	}

	return filepath.Walk(resolved, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return fn(underRoot(string(root), resolved, path), info, err)
	})
}

// underRoot rewrites a path below resolved into the same path below root.
func underRoot(root, resolved, path string) string {
	if root == resolved {
		return path
	}

	rel, err := filepath.Rel(resolved, path)
	if err != nil {
		return path
	}

	return filepath.Join(root, rel)
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(_ context.Context, path m.Path) ([]byte, error) {
	// #nosec G304 - path is supplied by the operator on the command line
	return os.ReadFile(string(path))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(_ context.Context, path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// CreateScratchFile creates a unique file in dir and fills it with content.
// The file is removed again if writing fails.
func (a *LocalSourceFSAdapter) CreateScratchFile(_ context.Context, dir, pattern string, content []byte) (m.Path, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create scratch dir %s: %w", dir, err)
		}
	}

	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}

	name := f.Name()

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(name)

		return "", fmt.Errorf("failed to write scratch file %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to close scratch file %s: %w", name, err)
	}

	return m.Path(name), nil
}

// RemoveFile deletes path, ignoring a file that is already gone.
func (a *LocalSourceFSAdapter) RemoveFile(_ context.Context, path m.Path) error {
	if err := os.Remove(string(path)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(_ context.Context, base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}
