// Package bigdir lists the entry names of very large directories.
//
// It is a lazy replacement for [os.ReadDir] / Readdirnames(-1) on directories
// with millions of entries: names are produced one at a time from a fixed-size
// buffer, the first name arrives after a single read, and memory does not grow
// with the entry count.
//
// Only names are returned. There is no file metadata, no recursion, no symlink
// resolution and no sorting; order is whatever the filesystem yields. The
// self (".") and parent ("..") entries are never returned.
//
// # Backends
//
// Two strategies implement the same contract:
//
//	BackendRaw     Linux: getdents64 into a large buffer, records parsed in place.
//	BackendStream  All platforms: (*os.File).Readdirnames, one entry per call.
//
// [Implementation] reports which one [BackendAuto] resolves to on the running
// platform ("linux" for the raw backend, "unix" or "portable" otherwise).
// If getdents64 is unavailable at run time (ENOSYS), the raw backend falls
// back to the stream backend on the same descriptor.
//
// # Usage
//
//	sc, err := bigdir.Scan("/var/spool/huge")
//	if err != nil {
//	        return err
//	}
//	defer sc.Close()
//
//	for sc.Next() {
//	        fmt.Println(sc.Name())
//	}
//
//	return sc.Err()
//
// Or with range-over-func:
//
//	for name, err := range bigdir.All("/var/spool/huge") {
//	        ...
//	}
//
// # Errors
//
// Failures are returned as [*IOError] wrapping the unmodified OS error, so
// errors.Is(err, fs.ErrNotExist) and errors.Is(err, syscall.ENOTDIR) work.
// End-of-directory is not an error.
//
// # Concurrency
//
// A [Scanner] is not safe for concurrent use. Open one scanner per goroutine;
// each owns its own descriptor and buffer.
package bigdir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// IOError is returned when a file system operation fails.
type IOError struct {
	// Path is the directory path passed to [Scan].
	Path string
	// Op is the operation that failed: "open", "readdir", or "close".
	Op string
	// Err is the underlying error.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Scanner enumerates the entries of one directory.
//
// A Scanner is forward-only and single-pass. Once Next returns false the scan
// is over and the OS resource has been released; Close is still safe to call.
type Scanner struct {
	ctx  context.Context
	path string
	be   backend

	name []byte
	eof  bool
	err  error
}

// Scan opens path for enumeration.
//
// Open failures (missing path, not a directory, permission denied, too many
// open files) are returned immediately as [*IOError] with Op "open".
func Scan(path string, opts ...Option) (*Scanner, error) {
	return ScanContext(context.Background(), path, opts...)
}

// ScanContext is like [Scan] but stops the scan once ctx is done.
//
// ctx is checked before every read. A blocked read is not interrupted; the
// scan stops at the next entry boundary with Err reporting [context.Cause].
func ScanContext(ctx context.Context, path string, opts ...Option) (*Scanner, error) {
	if strings.IndexByte(path, 0) >= 0 {
		return nil, &IOError{Path: path, Op: "open", Err: errContainsNUL}
	}

	err := ctx.Err()
	if err != nil {
		return nil, &IOError{Path: path, Op: "open", Err: context.Cause(ctx)}
	}

	cfg := applyOptions(opts)

	be, err := openBackend(cfg.Backend, path, cfg)
	if err != nil {
		return nil, &IOError{Path: path, Op: "open", Err: err}
	}

	return &Scanner{ctx: ctx, path: path, be: be}, nil
}

// Next advances to the next entry, skipping "." and "..".
//
// It returns false at end-of-directory or on error; check [Scanner.Err] to
// tell them apart. A failed read ends the scan permanently.
func (s *Scanner) Next() bool {
	if s.eof {
		return false
	}

	for {
		if s.ctx.Err() != nil {
			s.finish(context.Cause(s.ctx))

			return false
		}

		name, err := s.be.advance()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.finish(nil)
			} else {
				s.finish(&IOError{Path: s.path, Op: "readdir", Err: err})
			}

			return false
		}

		if isDotEntry(name) {
			continue
		}

		s.name = name

		return true
	}
}

// finish records the terminal outcome. The backend has already released its
// resource for EOF and read errors; cancellation releases it here.
func (s *Scanner) finish(err error) {
	s.eof = true
	s.name = nil
	s.err = err

	if err != nil {
		closeErr := s.be.dispose()
		if closeErr != nil {
			log.Warnw("close after failed scan", "path", s.path, "err", closeErr)
		}
	}
}

// Name returns the current entry name.
func (s *Scanner) Name() string {
	return string(s.name)
}

// NameBytes returns the current entry name without copying.
//
// The slice points into the scanner's buffer and is only valid until the next
// call to Next or Close. Copy it to retain it.
func (s *Scanner) NameBytes() []byte {
	return s.name
}

// Err returns the error that ended the scan, or nil after a clean
// end-of-directory.
func (s *Scanner) Err() error {
	return s.err
}

// Close releases the directory descriptor or handle.
//
// Close is idempotent and safe after end-of-directory. It may be called before
// the scan is complete to abandon it. A close failure is returned as
// [*IOError] with Op "close"; the scanner is closed regardless.
func (s *Scanner) Close() error {
	s.eof = true
	s.name = nil

	err := s.be.dispose()
	if err != nil {
		log.Warnw("close failed", "path", s.path, "err", err)

		return &IOError{Path: s.path, Op: "close", Err: err}
	}

	return nil
}

// Backend reports the strategy in use. It differs from the requested one only
// when [BackendAuto] was resolved or the raw backend fell back to streaming.
func (s *Scanner) Backend() BackendKind {
	return s.be.kind()
}

// Stats reports the reads and raw entries (including "." and "..") so far.
func (s *Scanner) Stats() Stats {
	return s.be.stats()
}

// All returns a lazy, single-pass sequence of the entry names in path.
//
// Open and read errors are yielded once as ("", err) and end the sequence.
// Breaking out of the loop early closes the directory.
func All(path string, opts ...Option) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		sc, err := Scan(path, opts...)
		if err != nil {
			yield("", err)

			return
		}

		defer func() { _ = sc.Close() }()

		for sc.Next() {
			if !yield(sc.Name(), nil) {
				return
			}
		}

		err = sc.Err()
		if err != nil {
			yield("", err)
		}
	}
}

// Names returns all entry names in path, unsorted.
//
// It holds every name in memory; prefer [Scan] or [All] for huge directories.
func Names(path string, opts ...Option) ([]string, error) {
	sc, err := Scan(path, opts...)
	if err != nil {
		return nil, err
	}

	defer func() { _ = sc.Close() }()

	var names []string
	for sc.Next() {
		names = append(names, sc.Name())
	}

	err = sc.Err()
	if err != nil {
		return names, err
	}

	return names, nil
}
