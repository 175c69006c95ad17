//go:build windows

package osver

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Detect returns the Windows version as major.minor.build
func Detect() (string, error) {
	info := windows.RtlGetVersion()
	if info == nil {
		return "", fmt.Errorf("failed to query Windows version")
	}
	return fmt.Sprintf("%d.%d.%d", info.MajorVersion, info.MinorVersion, info.BuildNumber), nil
}
