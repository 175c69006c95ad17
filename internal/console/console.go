// Package console handles the terminal window the installer runs in
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WaitForKey prompts the user to press Enter. Does nothing in non-interactive mode.
func WaitForKey(prompt string, nonInteractive bool) {
	if nonInteractive {
		return
	}
	fmt.Print(prompt)
	_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')
}

// writeOSCTitle sets a terminal emulator's window title
func writeOSCTitle(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, "\x1b]0;%s\x07", title)
	return err
}
