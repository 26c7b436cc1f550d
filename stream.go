package bigdir

// stream.go implements the portable-stream backend (see io_contract.go).
//
// It pulls one name at a time through (*os.File).Readdirnames and works on
// every platform Go supports. It gives no latency or memory guarantee beyond
// what the platform's directory reader provides; it exists for portability
// and as the fallback when getdents64 is unavailable.

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"
)

// streamBackend wraps an open directory stream.
type streamBackend struct {
	f    *os.File
	path string
	name []byte
	st   Stats
}

func openStream(path string) (*streamBackend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, unwrapPathError(err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, unwrapPathError(err)
	}

	if !info.IsDir() {
		_ = f.Close()

		return nil, syscall.ENOTDIR
	}

	return &streamBackend{f: f, path: path}, nil
}

// readNameImpl reads a single entry name from the stream.
// It returns io.EOF once the stream is drained.
func readNameImpl(f *os.File) (string, error) {
	names, err := f.Readdirnames(1)
	if len(names) > 0 {
		return names[0], nil
	}

	if err == nil {
		return "", io.EOF
	}

	return "", err
}

func (b *streamBackend) advance() ([]byte, error) {
	if b.f == nil {
		return nil, io.EOF
	}

	name, err := readName(b.f)
	b.st.Reads++

	switch {
	case err == nil:
		b.st.Entries++
		b.name = append(b.name[:0], name...)

		return b.name, nil

	case errors.Is(err, io.EOF) || errors.Is(err, syscall.ENOENT):
		// A directory removed while open reads as a normal EOF.
		b.closeQuietly()

		return nil, io.EOF

	default:
		b.closeQuietly()

		return nil, fmt.Errorf("readdirnames: %w", unwrapPathError(err))
	}
}

func (b *streamBackend) dispose() error {
	return b.release()
}

func (b *streamBackend) release() error {
	if b.f == nil {
		return nil
	}

	f := b.f
	b.f = nil
	b.name = nil

	err := f.Close()
	if err != nil {
		return fmt.Errorf("close dir: %w", unwrapPathError(err))
	}

	return nil
}

func (b *streamBackend) closeQuietly() {
	err := b.release()
	if err != nil {
		log.Warnw("close after scan failed", "path", b.path, "err", err)
	}
}

func (b *streamBackend) kind() BackendKind { return BackendStream }

func (b *streamBackend) stats() Stats { return b.st }

// unwrapPathError strips the *fs.PathError added by package os so the errno
// reaches callers unmodified; Scanner adds its own path context.
func unwrapPathError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}

	return err
}
