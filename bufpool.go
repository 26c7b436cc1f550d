package bigdir

import pool "github.com/libp2p/go-buffer-pool"

// getBuffer returns a raw backend buffer of exactly size bytes.
//
// Buffers are megabytes large; pooling lets repeated scans (one per
// directory in a loop) reuse them instead of leaning on the GC.
func getBuffer(size int) []byte {
	return pool.Get(size)
}

// putBuffer returns buf to the pool. buf must not be used afterwards.
func putBuffer(buf []byte) {
	if buf == nil {
		return
	}

	pool.Put(buf)
}
