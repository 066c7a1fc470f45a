//go:build windows

package main

import (
	"os"
	"strconv"
)

// terminalWidth reports $COLUMNS; 0 means unknown.
func terminalWidth(_ *os.File) int {
	n, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
