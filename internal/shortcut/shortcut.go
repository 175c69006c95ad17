// Package shortcut places a desktop link to the installed game
package shortcut

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnsupported is returned on platforms without shell links
var ErrUnsupported = errors.New("desktop shortcuts are only supported on Windows")

// DesktopDir returns the user's desktop, preferring the local folder over a
// OneDrive redirected one
func DesktopDir() (string, error) {
	userProfile := os.Getenv("USERPROFILE")
	if userProfile == "" {
		return "", fmt.Errorf("failed to get user profile directory")
	}

	for _, desktop := range []string{
		filepath.Join(userProfile, "Desktop"),
		filepath.Join(userProfile, "OneDrive", "Desktop"),
	} {
		if info, err := os.Stat(desktop); err == nil && info.IsDir() {
			return desktop, nil
		}
	}
	return "", fmt.Errorf("desktop directory not found")
}

// LinkPath returns where the shortcut called name is stored
func LinkPath(name string) (string, error) {
	desktop, err := DesktopDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(desktop, name+".lnk"), nil
}
