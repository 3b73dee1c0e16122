// Package fsutil publishes output files so readers never observe a partial
// write.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AtomicFile is a temporary file in the destination directory that is
// renamed over the destination on Commit.
type AtomicFile struct {
	*os.File
	path string
	done bool
}

// CreateAtomic creates the destination directory and a temporary file next
// to path. Exactly one of Commit or Abort must be called.
func CreateAtomic(path string, mode fs.FileMode) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.temp")
	if err != nil {
		return nil, err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	return &AtomicFile{File: tmp, path: path}, nil
}

// Path returns the final destination.
func (f *AtomicFile) Path() string {
	return f.path
}

// Commit syncs and closes the temporary file, then renames it to the
// destination.
func (f *AtomicFile) Commit() error {
	if f.done {
		return errors.New("atomic file already finished")
	}
	f.done = true
	tmpName := f.Name()

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", f.path, err)
	}
	return nil
}

// Abort closes and removes the temporary file. It is a no-op after Commit,
// so it can be deferred.
func (f *AtomicFile) Abort() error {
	if f.done {
		return nil
	}
	f.done = true
	_ = f.Close()
	return os.Remove(f.Name())
}

// WriteFileAtomic writes data to path through a temporary file.
func WriteFileAtomic(path string, data []byte, mode fs.FileMode) error {
	f, err := CreateAtomic(path, mode)
	if err != nil {
		return err
	}
	defer f.Abort() //nolint:errcheck // no-op after Commit

	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Commit()
}
