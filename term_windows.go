//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableVTProcessing turns on ANSI escape handling for stderr so the
// verbose capture-rate status line's "\r" rewrites in place on a Windows
// console instead of printing a new line per tick. It reports whether VT
// processing ended up active; main falls back to one line per tick when it
// doesn't (older conhost builds don't support the mode at all).
func enableVTProcessing() bool {
	handle := windows.Handle(os.Stderr.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		return false
	}
	if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
		return true
	}
	if err := windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
		return false
	}
	return true
}
