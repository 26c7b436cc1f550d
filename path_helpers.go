package bigdir

import "errors"

var errContainsNUL = errors.New("path contains NUL byte")

// pathWithNul converts a string path to []byte with NUL terminator.
// Used for syscalls that require NUL-terminated paths.
func pathWithNul(s string) []byte {
	b := make([]byte, 0, len(s)+1)
	b = append(b, s...)
	b = append(b, 0)

	return b
}
