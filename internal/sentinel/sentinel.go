// Package sentinel manages the marker files a launcher polls to follow the
// installer: "closed" while it runs, "installed" once it succeeded.
package sentinel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	Closed    = "closed"
	Installed = "installed"
)

// Touch creates the marker in dir, leaving an existing one untouched
func Touch(dir, name string) error {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	return f.Close()
}

// Remove deletes the marker. A missing marker is not an error.
func Remove(dir, name string) error {
	err := os.Remove(filepath.Join(dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the marker is present
func Exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// Begin marks a run in progress: any previous success marker is dropped
func Begin(dir string) error {
	if err := Remove(dir, Installed); err != nil {
		return err
	}
	return Touch(dir, Closed)
}

// End marks the run as finished, whatever its outcome
func End(dir string) error {
	return Remove(dir, Closed)
}
