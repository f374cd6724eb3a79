//+build !windows

package main

import (
	"os"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
)

type winsize struct {
	row, col, xpixel, ypixel uint16
}

func ioctl(fd uintptr, request, argp uintptr) (err error) {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, request, argp)
	if errno != 0 {
		err = errno
	}
	return errors.Wrap(err, "ioctl failed")
}

// consoleSize queries f's terminal dimensions via TIOCGWINSZ. It
// returns 0, 0 if f is not a terminal.
func consoleSize(f *os.File) (width, height int) {
	var w winsize
	if err := ioctl(f.Fd(), syscall.TIOCGWINSZ, uintptr(unsafe.Pointer(&w))); err != nil {
		return 0, 0
	}
	return int(w.col), int(w.row)
}
