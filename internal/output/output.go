// Package output writes the rendered reference to a file or stream.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrWriteOutput wraps every failure to emit the reference.
var ErrWriteOutput = errors.New("writing output")

// Write writes data to w in one call.
func Write(w io.Writer, data []byte) error {
	n, err := w.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// WriteFile replaces path with data atomically: data goes to a temporary
// file in the same directory that is renamed over path. On failure path
// is left untouched and the temporary file is removed. An existing file
// keeps its permissions.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil && info.Mode().IsRegular() {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	return nil
}
