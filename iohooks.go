//go:build bigdir_testhooks

package bigdir

import (
	"os"
	"sync/atomic"
)

// This file provides test-only I/O hooks for the backend contract.
//
// Build tag:
//   - Enabled only when tests are run with: go test -tags bigdir_testhooks ./...
//   - Normal builds use iohooks_stub.go, which forwards directly to the backend
//     implementation with zero hook overhead.
//
// How it is called:
//   - Scanner.Next -> backend.advance -> readDirent / readName
//   - The wrappers below intercept the single low-level read each backend
//     issues and (optionally) route it to a test hook. This allows
//     deterministic injection of read errors, ENOSYS and short reads without
//     relying on filesystem quirks.
//
// Scope and safety:
//   - Hooks are global to the test binary. Tests that install them MUST NOT be
//     run in parallel with other hook users.
//   - Atomic pointers avoid data races with non-hooked tests.

type (
	readDirentHookFn func(fd int, buf []byte) (int, error)
	readNameHookFn   func(f *os.File) (string, error)
)

var (
	readDirentHook atomic.Pointer[readDirentHookFn]
	readNameHook   atomic.Pointer[readNameHookFn]
)

// setReadDirentHook installs a getdents64 hook and returns a restore function.
//
// Usage:
//
//	restore := setReadDirentHook(func(fd int, buf []byte) (int, error) { ... })
//	defer restore()
//
// Passing nil removes any previously-installed hook.
func setReadDirentHook(hook readDirentHookFn) func() {
	if hook == nil {
		readDirentHook.Store(nil)

		return func() {}
	}

	readDirentHook.Store(&hook)

	return func() {
		readDirentHook.Store(nil)
	}
}

// setReadNameHook installs a Readdirnames hook and returns a restore function.
func setReadNameHook(hook readNameHookFn) func() {
	if hook == nil {
		readNameHook.Store(nil)

		return func() {}
	}

	readNameHook.Store(&hook)

	return func() {
		readNameHook.Store(nil)
	}
}

func readDirent(fd int, buf []byte) (int, error) {
	if hook := readDirentHook.Load(); hook != nil {
		return (*hook)(fd, buf)
	}

	return readDirentImpl(fd, buf)
}

func readName(f *os.File) (string, error) {
	if hook := readNameHook.Load(); hook != nil {
		return (*hook)(f)
	}

	return readNameImpl(f)
}

// Compile-time guard: wrapper signatures must match the backend contract.
var (
	_ func(int, []byte) (int, error) = readDirent
	_ func(*os.File) (string, error) = readName
)
