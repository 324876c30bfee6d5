package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File keeps each key in its own file, last.<key>.dat, holding an RFC 3339 timestamp
type File struct {
	dir string
}

// NewFile makes file storage in dir, creating it if missing
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("storage path is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

// Read returns the stored time for key or ErrNotFound
func (f *File) Read(_ context.Context, key string) (time.Time, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("read %s: %w", key, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return ts.UTC(), nil
}

// Write stores ts for key. The file is replaced atomically.
func (f *File) Write(_ context.Context, key string, ts time.Time) error {
	tmp, err := os.CreateTemp(f.dir, ".last-*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.WriteString(ts.UTC().Format(time.RFC3339Nano)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err = os.Rename(tmpName, f.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes key, missing key is not an error
func (f *File) Delete(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op, file storage holds no resources
func (f *File) Close() error { return nil }

func (f *File) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", string(os.PathSeparator), "_").Replace(key)
	return filepath.Join(f.dir, "last."+safe+".dat")
}
