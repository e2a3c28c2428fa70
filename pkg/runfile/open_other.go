//go:build !linux

package runfile

import "os"

// openWriteFile creates path for writing. Platforms without an O_DIRECT
// equivalent always use buffered I/O; the Writer's pad-and-truncate contract
// is identical either way.
func openWriteFile(path string, directIO bool) (*os.File, bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	return f, false, err
}
