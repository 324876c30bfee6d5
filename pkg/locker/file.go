package locker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// File keeps locks as files, <dir>/rssalert-<name>.lock, holding the owner and lease expiry.
// A new lock is created exclusively, an expired one is moved aside before being taken over.
type File struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

type fileLock struct {
	owner   string
	expires time.Time
}

// NewFile makes a file locker in dir, creating it if missing
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("lock path is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock dir %s: %w", dir, err)
	}
	return &File{dir: dir, now: time.Now}, nil
}

// Acquire takes the lock if it is free, expired or already held by owner
func (f *File) Acquire(_ context.Context, name, owner string, lease time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.path(name)
	lock := fileLock{owner: owner, expires: f.now().Add(lease)}

	ok, err := f.create(path, lock)
	if err != nil || ok {
		return ok, err
	}

	cur, err := f.read(path)
	if errors.Is(err, os.ErrNotExist) {
		return f.create(path, lock) // released in between
	}
	if err != nil {
		return false, err
	}

	switch {
	case cur.owner == owner:
		if err := f.replace(path, lock); err != nil {
			return false, err
		}
		return true, nil
	case f.now().After(cur.expires):
		// move the stale lock aside, only one contender gets to rename it
		stale := fmt.Sprintf("%s.stale-%d", path, f.now().UnixNano())
		if err := os.Rename(path, stale); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("take over lock %s: %w", name, err)
		}
		moved, err := f.read(stale)
		if err == nil && !f.now().After(moved.expires) {
			// somebody took it over between our read and rename, put it back
			_ = os.Rename(stale, path)
			return false, nil
		}
		_ = os.Remove(stale)
		return f.create(path, lock)
	default:
		return false, nil
	}
}

// Release removes the lock held by owner
func (f *File) Release(_ context.Context, name, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.path(name)
	cur, err := f.read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if cur.owner != owner {
		return ErrNotOwner
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Close is a no-op, file locker holds no resources
func (f *File) Close() error { return nil }

func (f *File) path(name string) string {
	return filepath.Join(f.dir, "rssalert-"+strings.ReplaceAll(name, "/", "_")+".lock")
}

// create makes the lock file exclusively, returns false if it already exists
func (f *File) create(path string, lock fileLock) (bool, error) {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // path built from config
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create lock file: %w", err)
	}
	if _, err := fh.WriteString(lock.encode()); err != nil {
		_ = fh.Close()
		_ = os.Remove(path)
		return false, fmt.Errorf("write lock file: %w", err)
	}
	if err := fh.Close(); err != nil {
		_ = os.Remove(path)
		return false, fmt.Errorf("close lock file: %w", err)
	}
	return true, nil
}

// replace rewrites the lock file atomically
func (f *File) replace(path string, lock fileLock) error {
	tmp := fmt.Sprintf("%s.tmp-%d", path, f.now().UnixNano())
	if err := os.WriteFile(tmp, []byte(lock.encode()), 0o600); err != nil {
		return fmt.Errorf("write lock file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("refresh lock file: %w", err)
	}
	return nil
}

func (f *File) read(path string) (fileLock, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path built from config
	if err != nil {
		return fileLock{}, err
	}
	owner, exp, ok := strings.Cut(strings.TrimSpace(string(data)), "\n")
	if !ok {
		// unreadable lock, treat as expired
		return fileLock{owner: owner}, nil
	}
	nanos, err := strconv.ParseInt(strings.TrimSpace(exp), 10, 64)
	if err != nil {
		return fileLock{owner: owner}, nil //nolint:nilerr // unreadable expiry is expired
	}
	return fileLock{owner: owner, expires: time.Unix(0, nanos)}, nil
}

func (l fileLock) encode() string {
	return l.owner + "\n" + strconv.FormatInt(l.expires.UnixNano(), 10) + "\n"
}
