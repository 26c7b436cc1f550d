//go:build linux && !android

package bigdir

// io_linux.go implements the raw-buffer backend (see io_contract.go).
//
// Linux is the performance-critical platform: glibc's readdir(3) may pull a
// large directory through small getdents calls and some callers (Python's
// listdir, for one) buffer it all before yielding. Here the directory fd is
// drained with getdents64 into one large fixed buffer and the variable-length
// dirent64 records are parsed in place, so the first name is available after
// a single syscall and the total syscall count is O(size / len(buf)).

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Implementation names the default strategy compiled for this platform.
const Implementation = "linux"

const defaultBackend = BackendRaw

// linux_dirent64 offsets (from linux/dirent.h):
//
//	struct linux_dirent64 {
//	    ino64_t        d_ino;    // 8 bytes  (offset 0)
//	    off64_t        d_off;    // 8 bytes  (offset 8)
//	    unsigned short d_reclen; // 2 bytes  (offset 16)
//	    unsigned char  d_type;   // 1 byte   (offset 18)
//	    char           d_name[]; // variable (offset 19)
//	};
const (
	direntReclenOffset = 16
	direntNameOffset   = 19
	direntMinSize      = direntNameOffset

	// atFDCWD is AT_FDCWD (-100) as a uintptr for use with syscall.Syscall6.
	atFDCWD = ^uintptr(0) - 99
)

var errInvalidDirent = errors.New("invalid dirent")

// rawState tracks the buffer between refills.
type rawState uint8

const (
	// rawUninitialized: no getdents64 call made yet.
	rawUninitialized rawState = iota
	// rawHasData: pos < n, records left to parse.
	rawHasData
	// rawExhausted: pos == n, next advance refills.
	rawExhausted
)

// rawBackend reads a directory fd with getdents64.
//
// Invariant: 0 <= pos <= n <= len(buf). A refill happens exactly when
// pos == n.
type rawBackend struct {
	fd    int
	path  string
	buf   []byte
	n     int
	pos   int
	state rawState
	st    Stats

	// fallback is set when getdents64 is unavailable (ENOSYS on the first
	// read). It owns the descriptor from then on.
	fallback *streamBackend
}

// openDirFd opens a directory fd. path must include its trailing NUL.
func openDirFd(path []byte) (int, error) {
	for {
		fd, _, errno := syscall.Syscall6(
			syscall.SYS_OPENAT,
			atFDCWD,
			uintptr(unsafe.Pointer(&path[0])),
			uintptr(unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC|unix.O_LARGEFILE),
			0, 0, 0,
		)
		if errno == syscall.EINTR {
			continue
		}

		if errno != 0 {
			return -1, errno
		}

		return int(fd), nil
	}
}

func openRaw(path string, cfg options) (backend, error) {
	fd, err := openDirFd(pathWithNul(path))
	if err != nil {
		return nil, err
	}

	return &rawBackend{
		fd:   fd,
		path: path,
		buf:  getBuffer(cfg.BufferSize),
	}, nil
}

// readDirentImpl issues one getdents64 call, retrying on EINTR.
func readDirentImpl(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Getdents(fd, buf)
		if err == syscall.EINTR {
			continue
		}

		return n, err
	}
}

func (b *rawBackend) advance() ([]byte, error) {
	if b.fallback != nil {
		return b.fallback.advance()
	}

	if b.fd < 0 {
		return nil, io.EOF
	}

	if b.state != rawHasData {
		err := b.refill()
		if err != nil {
			return nil, err
		}

		if b.fallback != nil {
			return b.fallback.advance()
		}
	}

	return b.parse()
}

// refill reads the next batch of records into buf.
//
// A zero-byte read is end-of-directory. ENOENT is also end-of-directory: the
// kernel reports it for a directory removed while open, and POSIX asks that
// this be treated like a normal EOF. Every other errno is a read failure.
func (b *rawBackend) refill() error {
	n, err := readDirent(b.fd, b.buf)
	b.st.Reads++

	switch {
	case err == nil && n > 0:
		if n > len(b.buf) {
			b.closeQuietly()

			return fmt.Errorf("getdents64: %w", errInvalidDirent)
		}

		b.n = n
		b.pos = 0
		b.state = rawHasData

		return nil

	case err == nil || errors.Is(err, syscall.ENOENT):
		b.closeQuietly()

		log.Debugw("raw scan done", "path", b.path, "reads", b.st.Reads, "entries", b.st.Entries)

		return io.EOF

	case errors.Is(err, syscall.ENOSYS) && b.state == rawUninitialized:
		log.Debugw("getdents64 unavailable, falling back to stream backend", "path", b.path)

		b.fallback = &streamBackend{f: os.NewFile(uintptr(b.fd), b.path), path: b.path}
		b.fd = -1
		putBuffer(b.buf)
		b.buf = nil

		return nil

	default:
		b.closeQuietly()

		return fmt.Errorf("getdents64: %w", err)
	}
}

// parse extracts the record at pos and advances pos by its d_reclen.
func (b *rawBackend) parse() ([]byte, error) {
	rec := b.buf[b.pos:b.n]
	if len(rec) < direntMinSize {
		return nil, b.corrupt()
	}

	reclen := int(binary.NativeEndian.Uint16(rec[direntReclenOffset:]))
	if reclen < direntMinSize || reclen > len(rec) {
		return nil, b.corrupt()
	}

	// Name ends at the first NUL; the rest of the record is padding.
	name := rec[direntNameOffset:reclen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	if len(name) == 0 {
		return nil, b.corrupt()
	}

	b.pos += reclen
	if b.pos == b.n {
		b.state = rawExhausted
	}

	b.st.Entries++

	return name, nil
}

func (b *rawBackend) corrupt() error {
	b.closeQuietly()

	return fmt.Errorf("getdents64: %w", errInvalidDirent)
}

func (b *rawBackend) dispose() error {
	if b.fallback != nil {
		return b.fallback.dispose()
	}

	return b.release()
}

// release closes the fd and returns the buffer to the pool. It is a no-op
// once the fd is gone.
func (b *rawBackend) release() error {
	if b.fd < 0 {
		return nil
	}

	fd := b.fd
	b.fd = -1
	b.n = 0
	b.pos = 0
	b.state = rawExhausted

	putBuffer(b.buf)
	b.buf = nil

	// We intentionally do not retry close(2) on EINTR.
	err := syscall.Close(fd)
	if err != nil {
		return fmt.Errorf("close dir: %w", err)
	}

	return nil
}

// closeQuietly releases after a terminal outcome. A close failure must not
// replace the EOF or read error being reported, so it is only logged.
func (b *rawBackend) closeQuietly() {
	err := b.release()
	if err != nil {
		log.Warnw("close after scan failed", "path", b.path, "err", err)
	}
}

func (b *rawBackend) kind() BackendKind {
	if b.fallback != nil {
		return BackendStream
	}

	return BackendRaw
}

func (b *rawBackend) stats() Stats {
	if b.fallback != nil {
		st := b.fallback.stats()
		st.Reads += b.st.Reads

		return st
	}

	return b.st
}
