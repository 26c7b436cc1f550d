//go:build unix && (!linux || android)

// io_unix.go covers non-Linux Unix platforms (macOS, the BSDs, solaris,
// illumos, aix, android). None of them get the raw-buffer backend; the
// portable stream backend is the default, matching what libc readdir(3)
// provides there.
package bigdir

// Implementation names the default strategy compiled for this platform.
const Implementation = "unix"

const defaultBackend = BackendStream

func openRaw(_ string, _ options) (backend, error) {
	return nil, ErrUnsupportedBackend
}

func readDirentImpl(_ int, _ []byte) (int, error) {
	return 0, ErrUnsupportedBackend
}
