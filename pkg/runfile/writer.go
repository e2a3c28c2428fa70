// Package runfile persists sorted runs. A Writer stages bytes in a
// block-aligned buffer so the file only ever sees full aligned writes, then
// truncates away the trailing padding when the run is finalized. FileSet
// hands out sequentially numbered run files.
package runfile

import (
	"errors"
	"fmt"
	"os"
	"unsafe"
)

// DefaultBlockSize is the default alignment unit for run file writes.
// 4K covers the direct-I/O requirements of common filesystems.
const DefaultBlockSize = 4096

var (
	// ErrInvalidBlockSize is returned for a block size that is not a
	// positive power of two.
	ErrInvalidBlockSize = errors.New("block size must be a positive power of two")

	// ErrWriterFinalized is returned when writing to a finalized Writer.
	ErrWriterFinalized = errors.New("writer already finalized")
)

// Writer writes one run file through a fixed-size aligned staging buffer.
// Every write the file sees is exactly one block; Finalize pads the last
// partial block, then truncates the file back to the logical byte count so
// no padding survives on disk.
type Writer struct {
	path      string
	file      *os.File
	buf       []byte // aligned staging buffer, len == blockSize
	staged    int    // bytes currently staged in buf
	logical   int64  // cumulative bytes accepted by Write
	blockSize int
	direct    bool // file opened with O_DIRECT
	finalized bool
}

// NewWriter creates the run file at path and returns a Writer over it.
// blockSize is the alignment unit. When directIO is set the file is opened
// unbuffered where the platform and filesystem allow it; otherwise the
// Writer transparently uses a standard buffered file with identical
// finalize semantics.
func NewWriter(path string, blockSize int, directIO bool) (*Writer, error) {
	if blockSize <= 0 || blockSize&(blockSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	file, direct, err := openWriteFile(path, directIO)
	if err != nil {
		return nil, fmt.Errorf("failed to create run file: %w", err)
	}

	return &Writer{
		path:      path,
		file:      file,
		buf:       alignedBlock(blockSize),
		blockSize: blockSize,
		direct:    direct,
	}, nil
}

// Write copies p into the staging buffer, emitting one aligned block write
// each time the buffer fills. It implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.finalized {
		return 0, ErrWriterFinalized
	}

	written := 0
	for len(p) > 0 {
		n := copy(w.buf[w.staged:], p)
		w.staged += n
		w.logical += int64(n)
		written += n
		p = p[n:]

		if w.staged == w.blockSize {
			if err := w.flushBlock(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// flushBlock writes the full staging buffer as one aligned block.
func (w *Writer) flushBlock() error {
	if _, err := w.file.Write(w.buf[:w.blockSize]); err != nil {
		return fmt.Errorf("failed to write block to %s: %w", w.path, err)
	}
	w.staged = 0
	return nil
}

// Finalize flushes a trailing partial block padded with zeros, truncates the
// file to the exact logical length, syncs, and closes it. It is idempotent
// and safe to run from a defer on error paths; the first error encountered
// is returned but close always happens.
func (w *Writer) Finalize() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	var firstErr error
	if w.staged > 0 {
		for i := w.staged; i < w.blockSize; i++ {
			w.buf[i] = 0
		}
		w.staged = 0
		if _, err := w.file.Write(w.buf[:w.blockSize]); err != nil {
			firstErr = fmt.Errorf("failed to write final block to %s: %w", w.path, err)
		}
	}

	// Truncation is a metadata operation, so it is permitted to leave an
	// unaligned length even on an O_DIRECT file descriptor.
	if firstErr == nil {
		if err := w.file.Truncate(w.logical); err != nil {
			firstErr = fmt.Errorf("failed to truncate %s to %d bytes: %w", w.path, w.logical, err)
		}
	}

	if firstErr == nil {
		if err := w.file.Sync(); err != nil {
			firstErr = fmt.Errorf("failed to sync %s: %w", w.path, err)
		}
	}

	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close %s: %w", w.path, err)
	}
	return firstErr
}

// LogicalSize returns the number of bytes accepted by Write so far. After
// Finalize this equals the on-disk file length exactly.
func (w *Writer) LogicalSize() int64 {
	return w.logical
}

// Path returns the run file path.
func (w *Writer) Path() string {
	return w.path
}

// DirectIO reports whether the underlying file was opened unbuffered.
func (w *Writer) DirectIO() bool {
	return w.direct
}

// alignedBlock allocates a size-byte buffer whose base address is aligned to
// size, as required for O_DIRECT writes.
func alignedBlock(size int) []byte {
	buf := make([]byte, 2*size)
	off := int(uintptr(unsafe.Pointer(&buf[0])) & uintptr(size-1))
	if off != 0 {
		off = size - off
	}
	return buf[off : off+size : off+size]
}
