//go:build linux

package runfile

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// openWriteFile creates path for writing, with O_DIRECT when directIO is set.
// Filesystems that refuse the flag (EINVAL, ENOTSUP) get a standard buffered
// file instead. The second return value reports whether O_DIRECT is in
// effect.
func openWriteFile(path string, directIO bool) (*os.File, bool, error) {
	if directIO {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|unix.O_DIRECT, 0644)
		if err == nil {
			return f, true, nil
		}
		if !errors.Is(err, unix.EINVAL) && !errors.Is(err, unix.ENOTSUP) {
			return nil, false, err
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	return f, false, err
}
