//go:build !windows

// Package procutil answers liveness questions about supervised child
// processes without owning them.
package procutil

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Alive reports whether a process exists and is not a zombie. A zombie is
// treated as gone: the executor has already collected (or is collecting)
// its exit status, so the spinner must stop.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if zombie(pid) {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

func zombie(pid int) bool {
	b, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		// No procfs (macOS, BSDs): fall back to the kill probe alone.
		return false
	}
	line := string(b)
	closeIdx := strings.LastIndexByte(line, ')')
	if closeIdx < 0 || closeIdx+2 >= len(line) {
		return false
	}
	state := line[closeIdx+2]
	return state == 'Z' || state == 'X'
}
