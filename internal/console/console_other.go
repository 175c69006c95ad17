//go:build !windows

package console

import (
	"os"

	"golang.org/x/term"
)

// SetTitle sets the terminal title when stdout is a terminal
func SetTitle(title string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return writeOSCTitle(os.Stdout, title)
}
