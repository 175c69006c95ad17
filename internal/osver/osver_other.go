//go:build !windows

package osver

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/host"
)

// Detect returns the kernel release
func Detect() (string, error) {
	ver, err := host.KernelVersion()
	if err != nil {
		return "", fmt.Errorf("failed to detect kernel version: %w", err)
	}
	return ver, nil
}
