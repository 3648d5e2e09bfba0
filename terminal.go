package main

import (
	"os"
	"strconv"

	"github.com/charmbracelet/x/term"
)

// terminalWidth returns the width of f and whether f is a terminal. Without
// a usable size the width comes from COLUMNS, then defaults to 80.
func terminalWidth(f *os.File) (width int, isTTY bool) {
	isTTY = term.IsTerminal(f.Fd())
	if isTTY {
		if w, _, err := term.GetSize(f.Fd()); err == nil && w > 0 {
			return w, true
		}
	}
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return w, isTTY
		}
	}
	return 80, isTTY
}
