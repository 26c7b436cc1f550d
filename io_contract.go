package bigdir

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// Internal enumeration backend contract
// ============================================================================
//
// Scanner (bigdir.go) is written against a small unexported contract that
// every directory reading strategy satisfies:
//
//	open     openBackend(kind, path, cfg) -> backend
//	advance  backend.advance()            -> next raw name | io.EOF | error
//	dispose  backend.dispose()            -> release the OS resource
//
// Implementations:
//   - Raw-buffer (getdents64), Linux only:  io_linux.go
//   - Portable stream (*os.File), everywhere: stream.go
//
// Platform defaults and the Implementation constant live in build-tagged
// files (io_linux.go, io_unix.go, io_other.go).
//
// Semantics expected by Scanner:
//
//   - advance returns raw names, including "." and "..". Filtering happens in
//     Scanner.Next.
//
//   - The returned name is borrowed. It may point into a reusable buffer and
//     is only valid until the next advance or dispose.
//
//   - advance returns io.EOF (unwrapped) exactly at end-of-directory. Any
//     other error is a read failure.
//
//   - After advance returns io.EOF or an error, the backend has already
//     released its descriptor/handle. Further advance calls return io.EOF
//     without touching the OS.
//
//   - dispose is idempotent. A close failure is returned but the backend is
//     considered closed regardless.

// backend is the shared enumeration contract.
type backend interface {
	advance() ([]byte, error)
	dispose() error
	kind() BackendKind
	stats() Stats
}

// Function signatures required by Scanner.
var (
	_ func(string, options) (backend, error) = openRaw
	_ func(string) (*streamBackend, error)   = openStream
	_ func(int, []byte) (int, error)         = readDirentImpl
)

// Compile-time guard: the stream backend is always available.
var _ backend = (*streamBackend)(nil)

// BackendKind selects the directory reading strategy.
type BackendKind uint8

const (
	// BackendAuto picks the fastest backend available on this platform.
	BackendAuto BackendKind = iota
	// BackendRaw reads kernel dirent records into a large buffer (Linux).
	BackendRaw
	// BackendStream reads one entry at a time through *os.File.
	BackendStream
)

// ErrUnsupportedBackend is returned when the requested backend is not
// available on this platform.
var ErrUnsupportedBackend = errors.New("backend not supported on this platform")

func (k BackendKind) String() string {
	switch k {
	case BackendAuto:
		return "auto"
	case BackendRaw:
		return "raw"
	case BackendStream:
		return "stream"
	default:
		return fmt.Sprintf("BackendKind(%d)", uint8(k))
	}
}

// ParseBackend converts "auto", "raw" or "stream" to a BackendKind.
func ParseBackend(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackendAuto, nil
	case "raw":
		return BackendRaw, nil
	case "stream":
		return BackendStream, nil
	default:
		return BackendAuto, fmt.Errorf("invalid backend %q (expected: auto | raw | stream)", s)
	}
}

// openBackend resolves kind against the platform default and opens path.
func openBackend(kind BackendKind, path string, cfg options) (backend, error) {
	if kind == BackendAuto {
		kind = defaultBackend
	}

	switch kind {
	case BackendRaw:
		return openRaw(path, cfg)
	case BackendStream:
		return openStream(path)
	default:
		return nil, fmt.Errorf("open: unknown backend %v", kind)
	}
}

// Stats counts the work a backend has done for one scan.
type Stats struct {
	// Reads is the number of low-level read calls issued (getdents64 for the
	// raw backend, Readdirnames for the stream backend).
	Reads uint64
	// Entries is the number of raw entries produced, including "." and "..".
	Entries uint64
}

func isDotEntry(name []byte) bool {
	if len(name) == 1 && name[0] == '.' {
		return true
	}

	return len(name) == 2 && name[0] == '.' && name[1] == '.'
}
