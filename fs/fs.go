// Package fs defines the whole-file storage abstraction the document stores are built on.
//
// Stores read and write complete documents; no partial updates or streaming are
// required, so the interface is limited to existence checks and whole-file I/O.
// Backends live in sub-packages: fs/billy (OS and in-memory) and fs/minio
// (S3-compatible object storage).
package fs

import (
	"io/fs"
	"os"
)

// ErrNotExist is returned (wrapped) when a file does not exist.
var ErrNotExist = fs.ErrNotExist

// Filesystem is the whole-file storage contract.
type Filesystem interface {
	// Exists reports whether path exists. A missing file is not an error.
	Exists(path string) (bool, error)

	// ReadFile returns the full contents of path.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the contents of path, creating it if needed.
	WriteFile(path string, data []byte, perm os.FileMode) error
}
