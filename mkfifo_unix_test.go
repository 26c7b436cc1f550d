//go:build unix

package bigdir_test

import (
	"syscall"
	"testing"
)

// mkfifo creates a named pipe and reports whether the platform supports it.
func mkfifo(t *testing.T, path string) bool {
	t.Helper()

	err := syscall.Mkfifo(path, 0o600)
	if err != nil {
		t.Fatalf("mkfifo %s: %v", path, err)
	}

	return true
}
