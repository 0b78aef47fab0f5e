package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword and terminalFD are test seams for the terminal. In tests they
// can be replaced with stubs to avoid touching a real TTY.
var (
	readPassword = term.ReadPassword
	terminalFD   = func(r io.Reader) (int, bool) {
		f, ok := r.(*os.File)
		if !ok {
			return 0, false
		}
		fd := int(f.Fd())
		return fd, term.IsTerminal(fd)
	}
)

// GetPassword prints prompt to a.errOut and reads a password. On a terminal
// the input is not echoed; otherwise one line is read from the input stream.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func (a *App) GetPassword(prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(a.errOut, prompt); err != nil {
		return nil, err
	}
	if fd, ok := terminalFD(a.stdin); ok {
		pw, err := readPassword(fd)
		fmt.Fprintln(a.errOut)
		if err != nil {
			return nil, err
		}
		return pw, nil
	}

	line, err := a.in.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}
