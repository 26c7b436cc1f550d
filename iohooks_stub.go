//go:build !bigdir_testhooks

package bigdir

import "os"

func readDirent(fd int, buf []byte) (int, error) {
	return readDirentImpl(fd, buf)
}

func readName(f *os.File) (string, error) {
	return readNameImpl(f)
}

// Compile-time guard: wrapper signatures must match the backend contract.
var (
	_ func(int, []byte) (int, error) = readDirent
	_ func(*os.File) (string, error) = readName
)
