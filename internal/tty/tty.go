// Package tty adapts a Unix terminal (tty(4), termios(4)) to the console
// byte stream the emulated keyboard trap routines read from and the display
// trap routines write to.
package tty

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Console is a serial console backed by the process's standard input. It
// puts the terminal into raw, non-canonical mode so that key presses reach
// the emulator one byte at a time, unbuffered by line discipline, and
// un-echoed (the emulator's own trap routines decide what to echo).
type Console struct {
	in    *os.File
	fd    int
	state *term.State
}

// ErrNoTTY is returned by NewConsole when the given file is not a terminal.
var ErrNoTTY = errors.New("tty: not a terminal")

// NewConsole puts in into raw mode and returns a Console reading from it.
// Callers must call Restore to return the terminal to its original state.
func NewConsole(in *os.File) (*Console, error) {
	fd := int(in.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	return &Console{in: in, fd: fd, state: state}, nil
}

// Restore returns the terminal to the state it was in before NewConsole.
func (c *Console) Restore() error {
	return term.Restore(c.fd, c.state)
}

// Ready reports whether a byte is available to read without blocking. It
// polls the underlying file descriptor with a zero timeout, so calling it in
// a tight loop is safe and cheap.
func (c *Console) Ready() bool {
	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}

	n, err := unix.Poll(fds, 0)
	if err != nil || n <= 0 {
		return false
	}

	return fds[0].Revents&unix.POLLIN != 0
}

// ReadByte blocks until a single byte is available on the console and
// returns it.
func (c *Console) ReadByte() (byte, error) {
	var buf [1]byte

	if _, err := c.in.Read(buf[:]); err != nil {
		return 0, err
	}

	return buf[0], nil
}
