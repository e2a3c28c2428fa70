package runfile

import (
	"fmt"
	"path/filepath"
)

// FileSet names and creates the sequentially numbered files of one run
// generation pass: <dir>/<prefix>_<NNN>.bin with NNN zero-padded from 000.
// Each run gets a fresh Writer; writers are never reused across runs.
type FileSet struct {
	dir       string
	prefix    string
	blockSize int
	directIO  bool
}

// NewFileSet returns a FileSet writing under dir with the given name prefix
// and writer settings. An empty dir means the current directory.
func NewFileSet(dir, prefix string, blockSize int, directIO bool) *FileSet {
	return &FileSet{
		dir:       dir,
		prefix:    prefix,
		blockSize: blockSize,
		directIO:  directIO,
	}
}

// Path returns the file path for run index idx.
func (fs *FileSet) Path(idx int) string {
	return filepath.Join(fs.dir, fmt.Sprintf("%s_%03d.bin", fs.prefix, idx))
}

// Create opens a new Writer for run index idx.
func (fs *FileSet) Create(idx int) (*Writer, error) {
	return NewWriter(fs.Path(idx), fs.blockSize, fs.directIO)
}
