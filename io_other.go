//go:build !unix

// io_other.go covers platforms without a Unix directory API (windows, plan9,
// js/wasm, ...). Only the portable stream backend is available.
package bigdir

// Implementation names the default strategy compiled for this platform.
const Implementation = "portable"

const defaultBackend = BackendStream

func openRaw(_ string, _ options) (backend, error) {
	return nil, ErrUnsupportedBackend
}

func readDirentImpl(_ int, _ []byte) (int, error) {
	return 0, ErrUnsupportedBackend
}
